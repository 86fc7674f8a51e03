// Package layout maps project/track/meeting identity onto data-root paths.
//
//	Projects/<project>/project.xml
//	Projects/<project>/Tracks/<track>/track.xml
//	Projects/<project>/Tracks/<track>/Meetings/<nnnn>/meeting.xml
//	Projects/<project>/Tracks/<track>/Meetings/<nnnn>/attachments/
//	Projects/<project>/Tracks/<track>/Meetings/<nnnn>/exports/
//	logs/app.log
//
// Path functions are pure; the Ensure* methods create directories through a
// storage.Provider and may be called any number of times.
package layout

import (
	"path"
	"strings"

	"github.com/starford/minutebook/internal/storage"
)

// Fixed names of the on-disk tree.
const (
	ProjectsDir    = "Projects"
	TracksDir      = "Tracks"
	MeetingsDir    = "Meetings"
	AttachmentsDir = "attachments"
	ExportsDir     = "exports"
	LogsDir        = "logs"

	ProjectFile = "project.xml"
	TrackFile   = "track.xml"
	MeetingFile = "meeting.xml"
	LogFile     = "app.log"
)

// ProjectDir returns Projects/<project>.
func ProjectDir(project string) string {
	return path.Join(ProjectsDir, project)
}

// ProjectXML returns the project header file path.
func ProjectXML(project string) string {
	return path.Join(ProjectDir(project), ProjectFile)
}

// TracksRoot returns the directory holding a project's tracks.
func TracksRoot(project string) string {
	return path.Join(ProjectDir(project), TracksDir)
}

// TrackDir returns Projects/<project>/Tracks/<track>.
func TrackDir(project, track string) string {
	return path.Join(TracksRoot(project), track)
}

// TrackXML returns the track header file path.
func TrackXML(project, track string) string {
	return path.Join(TrackDir(project, track), TrackFile)
}

// MeetingsRoot returns the directory holding a track's numbered meetings.
func MeetingsRoot(project, track string) string {
	return path.Join(TrackDir(project, track), MeetingsDir)
}

// MeetingDir returns the directory of one meeting.
func MeetingDir(project, track, number string) string {
	return path.Join(MeetingsRoot(project, track), number)
}

// MeetingXML returns the meeting document path.
func MeetingXML(project, track, number string) string {
	return path.Join(MeetingDir(project, track, number), MeetingFile)
}

// AttachmentsPath returns the meeting's attachments directory.
func AttachmentsPath(project, track, number string) string {
	return path.Join(MeetingDir(project, track, number), AttachmentsDir)
}

// ExportsPath returns the meeting's exports directory.
func ExportsPath(project, track, number string) string {
	return path.Join(MeetingDir(project, track, number), ExportsDir)
}

// LogPath returns logs/app.log.
func LogPath() string {
	return path.Join(LogsDir, LogFile)
}

// MeetingRef addresses a meeting by slugs and number.
type MeetingRef struct {
	Project string `json:"project"`
	Track   string `json:"track"`
	Number  string `json:"number"`
}

// Path returns the meeting document path of ref.
func (r MeetingRef) Path() string {
	return MeetingXML(r.Project, r.Track, r.Number)
}

// ParseMeetingPath is the inverse of MeetingXML. It accepts slash- or
// OS-separated relative paths.
func ParseMeetingPath(rel string) (MeetingRef, bool) {
	parts := strings.Split(strings.ReplaceAll(rel, "\\", "/"), "/")
	if len(parts) != 7 ||
		parts[0] != ProjectsDir || parts[2] != TracksDir ||
		parts[4] != MeetingsDir || parts[6] != MeetingFile {
		return MeetingRef{}, false
	}
	if parts[1] == "" || parts[3] == "" || !IsMeetingNumber(parts[5]) {
		return MeetingRef{}, false
	}
	return MeetingRef{Project: parts[1], Track: parts[3], Number: parts[5]}, true
}

// IsMeetingNumber reports whether name is an all-digit directory name.
func IsMeetingNumber(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Resolver creates layout directories on demand.
type Resolver struct {
	fs storage.Provider
}

// NewResolver returns a Resolver writing through fs.
func NewResolver(fs storage.Provider) *Resolver {
	return &Resolver{fs: fs}
}

// EnsureRoot creates Projects/ and logs/.
func (r *Resolver) EnsureRoot() error {
	if err := r.fs.MkdirAll(ProjectsDir); err != nil {
		return err
	}
	return r.fs.MkdirAll(LogsDir)
}

// EnsureMeetingDir creates the meeting directory with its attachments/ and
// exports/ subdirectories and returns the meeting document path.
func (r *Resolver) EnsureMeetingDir(project, track, number string) (string, error) {
	if err := r.fs.MkdirAll(AttachmentsPath(project, track, number)); err != nil {
		return "", err
	}
	if err := r.fs.MkdirAll(ExportsPath(project, track, number)); err != nil {
		return "", err
	}
	return MeetingXML(project, track, number), nil
}
