package watch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/domain/workflow"
	"casetrack/internal/errs"
	"casetrack/internal/usecase/qc"
)

// summaryFile is the drop format the offline check tool writes, one JSON
// document per case verdict.
type summaryFile struct {
	CaseUID        string          `json:"case_uid"`
	Kind           string          `json:"kind"`
	Classification string          `json:"classification"`
	RuleHits       int             `json:"rule_hits"`
	Detail         json.RawMessage `json:"detail"`
}

// Watcher ingests qc summary files dropped into a directory. Processed files
// are renamed in place: .done on success, .err on failure, so re-runs never
// double-ingest.
type Watcher struct {
	dir     string
	qc      *qc.Service
	actorID uint64
}

func New(dir string, qcSvc *qc.Service, actorID uint64) *Watcher {
	return &Watcher{dir: dir, qc: qcSvc, actorID: actorID}
}

// Run processes files already present, then blocks on filesystem events
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if w.dir == "" {
		return errors.New("watch directory is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "watch"),
		slog.String("dir", w.dir),
	)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errs.Wrap(err, "create watch directory")
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create fs watcher")
	}
	defer notifier.Close()

	if err := notifier.Add(w.dir); err != nil {
		return errs.Wrap(err, "watch directory")
	}

	w.sweep(logCtx)
	logging.Info(logCtx, "qc watcher started")

	for {
		select {
		case <-ctx.Done():
			logging.Info(logCtx, "qc watcher stopping")
			return nil
		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			// Writers may still be flushing right after Create.
			time.Sleep(100 * time.Millisecond)
			w.processFile(logCtx, event.Name)
		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			logging.Warn(logCtx, "fs watcher error", slog.Any("err", errs.Loggable(err)))
		}
	}
}

// sweep handles files that arrived while the watcher was down.
func (w *Watcher) sweep(ctx context.Context) {
	matches, err := filepath.Glob(filepath.Join(w.dir, "*.json"))
	if err != nil {
		logging.Warn(ctx, "sweep failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	for _, path := range matches {
		w.processFile(ctx, path)
	}
}

func (w *Watcher) processFile(ctx context.Context, path string) {
	fileCtx := logging.WithAttrs(ctx, slog.String("file", filepath.Base(path)))

	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn(fileCtx, "read summary file failed", slog.Any("err", errs.Loggable(err)))
		return
	}

	var file summaryFile
	if err := json.Unmarshal(data, &file); err != nil {
		w.markFile(fileCtx, path, ".err")
		logging.Warn(fileCtx, "malformed summary file", slog.Any("err", errs.Loggable(err)))
		return
	}

	detail := "{}"
	if len(file.Detail) > 0 {
		detail = string(file.Detail)
	}

	result, err := w.qc.Ingest(ctx, qc.IngestInput{
		CaseUID:        file.CaseUID,
		Kind:           workflow.QcKind(strings.ToUpper(file.Kind)),
		Classification: workflow.QcClassification(strings.ToUpper(file.Classification)),
		RuleHits:       file.RuleHits,
		DetailJSON:     detail,
		ActorID:        w.actorID,
	})
	if err != nil {
		w.markFile(fileCtx, path, ".err")
		logging.Warn(fileCtx, "ingest summary failed", slog.Any("err", errs.Loggable(err)))
		return
	}

	w.markFile(fileCtx, path, ".done")
	logging.Info(fileCtx, "summary ingested",
		slog.String("case_uid", file.CaseUID),
		slog.Bool("routed", result.Routed),
	)
}

func (w *Watcher) markFile(ctx context.Context, path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		logging.Warn(ctx, "rename processed file failed", slog.Any("err", errs.Loggable(err)))
	}
}
