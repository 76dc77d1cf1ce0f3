package playerbar

import "fmt"

// RenderVolume renders the volume indicator.
// Format: "vol  50%" or "mute" at zero
func RenderVolume(volume float32) string {
	if volume <= 0 {
		return progressTimeStyle().Render("mute")
	}
	pct := int(volume*100 + 0.5)
	return progressTimeStyle().Render(fmt.Sprintf("vol %3d%%", pct))
}
