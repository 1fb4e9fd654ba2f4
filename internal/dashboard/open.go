package dashboard

import (
	"encoding/json"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"tyredash/internal/models"
)

const (
	defaultPage = "index.html"
	selectPage  = "select.html"
)

var protocolPages = map[string]string{
	"MF62":   "mf.html",
	"MF52":   "mf52.html",
	"FTIRE":  "ftire.html",
	"CDTIRE": "cdtire.html",
	"CUSTOM": "custom.html",
}

// ProtocolPage returns the workspace page for a simulation protocol
func ProtocolPage(protocol string) string {
	if page, ok := protocolPages[strings.ToUpper(strings.TrimSpace(protocol))]; ok {
		return page
	}
	return defaultPage
}

// Destination is where opening a project leads
type Destination struct {
	Page      string
	ProjectID string
	Prefill   bool
	// Inputs of an in-progress project, handed to the workspace for prefill
	Inputs json.RawMessage
}

// Path renders the destination as a server-relative URL
func (d Destination) Path(baseURL string) string {
	u := strings.TrimRight(baseURL, "/") + "/" + d.Page
	if d.ProjectID == "" {
		return u
	}
	q := url.Values{}
	q.Set("projectId", d.ProjectID)
	if d.Prefill {
		q.Set("prefill", "1")
	}
	return u + "?" + q.Encode()
}

// Open touches p so it floats up in the ranking and returns its workspace.
// In-progress projects carry their id and inputs so work can resume.
func (s *Service) Open(p models.Project) Destination {
	s.store.Touch(models.DeriveKey(p))

	dest := Destination{Page: ProtocolPage(p.Protocol)}
	pid := openID(p)
	if p.HasStatus(statusInProgress) && pid != "" {
		dest.ProjectID = pid
		dest.Prefill = true
		dest.Inputs = p.Inputs
	}

	s.logger.Debug("project opened",
		zap.Stringer("key", models.DeriveKey(p)),
		zap.String("page", dest.Page),
		zap.Bool("prefill", dest.Prefill))
	return dest
}

// OpenRecent returns the result selection page for a completed project
func (s *Service) OpenRecent(p models.Project) Destination {
	return Destination{Page: selectPage, ProjectID: openID(p)}
}

func openID(p models.Project) string {
	if p.ID.Present() && p.ID.String() != "" {
		return p.ID.String()
	}
	return p.ProjectName
}

// StatusKind classifies a free-form status for badges
type StatusKind string

const (
	KindNone       StatusKind = ""
	KindInProgress StatusKind = "in-progress"
	KindCompleted  StatusKind = "completed"
	KindFailed     StatusKind = "failed"
)

// ClassifyStatus matches by substring, so "Completed with warnings" is completed
func ClassifyStatus(status string) StatusKind {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "progress"):
		return KindInProgress
	case strings.Contains(s, "complete"):
		return KindCompleted
	case strings.Contains(s, "fail"):
		return KindFailed
	default:
		return KindNone
	}
}

// StatusLabel is the text shown in a status badge
func StatusLabel(status string) string {
	if strings.TrimSpace(status) == "" {
		return "not started"
	}
	return status
}
