package remote

import (
	"fmt"
	"time"

	"github.com/beefmote/beefmote/internal/player"
)

// formatTrack renders a track as "[artist - album] track# - title (mm:ss)",
// the one line format shared by tracklists, search results, the current
// track query, and now-playing notifications.
func formatTrack(t player.Track) string {
	return fmt.Sprintf("[%s - %s] %s - %s (%s)",
		t.Artist, t.Album, t.Number, t.Title, formatDuration(t.Duration))
}

// formatDuration renders a duration as m:ss (e.g. "6:48").
func formatDuration(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
