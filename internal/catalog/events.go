package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/internal/core/pubsub"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// SubjectReconcileCompleted is published after every successful reconciliation.
const SubjectReconcileCompleted = "reconcile.completed"

// TagsSubject returns the subject a tag mutation of the given mode is
// published on: tags.reset, tags.merge or tags.delete.
func TagsSubject(mode model.TagMode) string {
	return "tags." + strings.ToLower(string(mode))
}

// TagsEvent describes a committed tag mutation.
type TagsEvent struct {
	ID        string        `json:"id"`
	Mode      model.TagMode `json:"mode"`
	Requested []string      `json:"requested"`
	Tags      []string      `json:"tags"`
	Timestamp int64         `json:"timestamp"`
}

// ReconcileEvent carries the report of a finished reconciliation.
type ReconcileEvent struct {
	Report
	Timestamp int64 `json:"timestamp"`
}

// Events publishes catalog events. Failures are logged and never surface to
// the caller. A nil *Events publishes nothing.
type Events struct {
	pub     pubsub.Publisher
	timeout time.Duration
	logger  *slog.Logger
}

// NewEvents wraps pub; every publish is bounded by timeout.
func NewEvents(pub pubsub.Publisher, timeout time.Duration, logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{pub: pub, timeout: timeout, logger: logger.With("component", "events")}
}

func (e *Events) tagsChanged(ctx context.Context, mode model.TagMode, requested []string, rec *model.FileRecord) {
	e.publish(ctx, TagsSubject(mode), TagsEvent{
		ID:        rec.ID,
		Mode:      mode,
		Requested: requested,
		Tags:      rec.Tags,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (e *Events) reconciled(ctx context.Context, report Report) {
	e.publish(ctx, SubjectReconcileCompleted, ReconcileEvent{
		Report:    report,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (e *Events) publish(ctx context.Context, subject string, v any) {
	if e == nil || e.pub == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		e.logger.Error("Failed to encode event", "subject", subject, "error", err)
		return
	}

	// the event outlives a canceled request once the write is committed
	pctx, cancel := index.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	if err := e.pub.Publish(pctx, subject, data); err != nil {
		e.logger.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}
