// Package workflow runs the device lifecycle: onboarding a first spec
// version and gating updates on the rebuild decision.
package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/logger"
	"github.com/sprite-ai/specgate/internal/registry"
	"github.com/sprite-ai/specgate/internal/report"
	"github.com/sprite-ai/specgate/internal/review"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

// DocumentFile is the name of the staged document inside a version directory.
const DocumentFile = "document.json"

var timeNow = time.Now

// Options configures a Workflow.
type Options struct {
	// OutputDir holds one directory per device version.
	OutputDir string
	// ReviewDir receives pending review reports. Empty disables them.
	ReviewDir string
	Indexer   Indexer
	Reports   *report.Generator
	Logger    *zerolog.Logger
}

// Workflow onboards and updates devices. Operations on the same device are
// serialized; different devices proceed independently.
type Workflow struct {
	registry *registry.Registry
	store    review.Store
	detector *specdiff.Detector
	opts     Options
	locks    review.Locks
	log      zerolog.Logger
}

// New wires a workflow.
func New(reg *registry.Registry, store review.Store, det *specdiff.Detector, opts Options) *Workflow {
	if opts.Indexer == nil {
		opts.Indexer = ManifestIndexer{}
	}
	if opts.Reports == nil {
		opts.Reports = report.NewGenerator()
	}
	w := &Workflow{registry: reg, store: store, detector: det, opts: opts, log: logger.Component("workflow")}
	if opts.Logger != nil {
		w.log = *opts.Logger
	}
	return w
}

// Result describes what an onboarding or update did.
type Result struct {
	DeviceID          string             `json:"device_id"`
	Outcome           specdiff.Outcome   `json:"outcome"`
	Diff              *specdiff.SpecDiff `json:"diff"`
	ReportPath        string             `json:"report_path"`
	IndexPath         string             `json:"index_path,omitempty"`
	PendingReviewPath string             `json:"pending_review_path,omitempty"`
}

// OnboardRequest describes the first spec version of a device.
type OnboardRequest struct {
	Vendor       string
	Model        string
	DeviceName   string
	Version      string
	PDFPath      string
	DocumentPath string
}

func (r OnboardRequest) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"vendor", r.Vendor},
		{"model", r.Model},
		{"version", r.Version},
		{"pdf", r.PDFPath},
		{"document", r.DocumentPath},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Onboard records the baseline version of a new device type.
func (w *Workflow) Onboard(ctx context.Context, req OnboardRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("onboard: %w", err)
	}
	id := registry.DeviceID(req.Vendor, req.Model)
	defer w.locks.Lock(id)()

	if w.registry.Exists(id) {
		return nil, fmt.Errorf("%w: %s", registry.ErrDeviceExists, id)
	}

	pdfHash, err := document.FileHash(req.PDFPath)
	if err != nil {
		return nil, err
	}
	dir := w.versionDir(req.Vendor, req.Model, req.Version)
	staged, err := stage(req.DocumentPath, dir)
	if err != nil {
		return nil, err
	}
	doc, err := document.Load(staged)
	if err != nil {
		return nil, err
	}

	d, err := w.detector.Baseline(specdiff.Snapshot{Version: req.Version, PDFHash: pdfHash, Document: doc}, id)
	if err != nil {
		return nil, err
	}

	indexPath, err := w.opts.Indexer.Build(ctx, doc, filepath.Join(dir, "index"))
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	dev := report.Device{Vendor: req.Vendor, Model: req.Model}
	reportPath, err := w.opts.Reports.Write(filepath.Join(dir, "reports"), d, dev)
	if err != nil {
		return nil, err
	}

	name := req.DeviceName
	if name == "" {
		name = req.Vendor + " " + req.Model
	}
	if _, err := w.registry.Register(req.Vendor, req.Model, name, registry.Version{
		Version:              req.Version,
		PDFHash:              pdfHash,
		DocumentPath:         staged,
		IndexPath:            indexPath,
		ReportPath:           reportPath,
		IsBaseline:           true,
		RebuildPerformed:     true,
		MessageSummary:       d.NewInventory.Summary(),
		UnrecognizedMessages: registry.Unrecognized(d.NewInventory),
	}); err != nil {
		return nil, err
	}

	res := &Result{
		DeviceID:   id,
		Outcome:    specdiff.OutcomeBaseline,
		Diff:       d,
		ReportPath: reportPath,
		IndexPath:  indexPath,
	}
	res.PendingReviewPath = w.pendingReport(d.NewInventory)

	w.log.Info().Str("device", id).Str("version", req.Version).Str("report", reportPath).Msg("device onboarded")
	return res, nil
}

// UpdateRequest describes a new spec version of a registered device.
// Approval is the operator's reason for accepting a required rebuild.
type UpdateRequest struct {
	DeviceID     string
	Version      string
	PDFPath      string
	DocumentPath string
	Approval     string
}

// Update compares a new version with the device's current one. When a
// rebuild is required and no approval was given the result is
// OutcomeBlocked and the registry is left unchanged; this is not an error.
func (w *Workflow) Update(ctx context.Context, req UpdateRequest) (*Result, error) {
	defer w.locks.Lock(req.DeviceID)()

	dev, ok := w.registry.Device(req.DeviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrDeviceNotFound, req.DeviceID)
	}
	if _, exists := dev.Version(req.Version); exists {
		return nil, fmt.Errorf("%w: %s v%s", registry.ErrVersionExists, req.DeviceID, req.Version)
	}
	prev, ok := dev.Current()
	if !ok {
		return nil, fmt.Errorf("device %s has no current version", req.DeviceID)
	}

	pdfHash, err := document.FileHash(req.PDFPath)
	if err != nil {
		return nil, err
	}
	dir := w.versionDir(dev.Vendor, dev.Model, req.Version)
	staged, err := stage(req.DocumentPath, dir)
	if err != nil {
		return nil, err
	}

	d, err := w.detector.Compare(
		specdiff.Snapshot{Version: prev.Version, PDFHash: prev.PDFHash, DocumentPath: prev.DocumentPath},
		specdiff.Snapshot{Version: req.Version, PDFHash: pdfHash, DocumentPath: staged},
		req.DeviceID,
	)
	if err != nil {
		return nil, err
	}

	reportPath, err := w.opts.Reports.Write(filepath.Join(dir, "reports"), d, report.Device{Vendor: dev.Vendor, Model: dev.Model})
	if err != nil {
		return nil, err
	}

	res := &Result{DeviceID: req.DeviceID, Diff: d, ReportPath: reportPath}
	res.Outcome = specdiff.Gate(d, req.Approval)
	if !res.Outcome.Proceeds() {
		w.log.Warn().
			Str("device", req.DeviceID).
			Str("reason", d.Decision.Reason).
			Str("report", reportPath).
			Msg("rebuild required; review the change report and re-run with --approve \"<reason>\"")
		return res, nil
	}

	res.IndexPath = prev.IndexPath
	if res.Outcome.Rebuilds() {
		doc, err := document.Load(staged)
		if err != nil {
			return nil, err
		}
		if res.IndexPath, err = w.opts.Indexer.Build(ctx, doc, filepath.Join(dir, "index")); err != nil {
			return nil, fmt.Errorf("building index: %w", err)
		}
	}

	v := registry.Version{
		Version:              req.Version,
		PDFHash:              pdfHash,
		DocumentPath:         staged,
		IndexPath:            res.IndexPath,
		ReportPath:           reportPath,
		RebuildPerformed:     res.Outcome.Rebuilds(),
		ImpactCounts:         d.Decision.ImpactCounts,
		MessageSummary:       prev.MessageSummary,
		UnrecognizedMessages: prev.UnrecognizedMessages,
	}
	if res.Outcome == specdiff.OutcomeNoChange {
		v.DocumentPath = prev.DocumentPath
	}
	if res.Outcome == specdiff.OutcomeRebuildApproved {
		v.ApprovalReason = strings.TrimSpace(req.Approval)
	}
	if d.NewInventory != nil {
		v.MessageSummary = d.NewInventory.Summary()
		v.UnrecognizedMessages = registry.Unrecognized(d.NewInventory)
	}
	if err := w.registry.AddVersion(req.DeviceID, v); err != nil {
		return nil, err
	}
	res.PendingReviewPath = w.pendingReport(d.NewInventory)

	w.log.Info().
		Str("device", req.DeviceID).
		Str("version", req.Version).
		Str("outcome", string(res.Outcome)).
		Msg("device updated")
	return res, nil
}

func (w *Workflow) versionDir(vendor, model, version string) string {
	return filepath.Join(w.opts.OutputDir, fmt.Sprintf("%s_%s_v%s", vendor, model, version))
}

// pendingReport writes the review queue report when the new inventory holds
// unrecognized messages. Failures are logged: the report is a convenience.
func (w *Workflow) pendingReport(inv *inventory.MessageInventory) string {
	if w.opts.ReviewDir == "" || inv == nil || len(inv.Unrecognized) == 0 || w.store == nil {
		return ""
	}
	msgs, err := w.store.Load()
	if err != nil {
		w.log.Warn().Err(err).Msg("loading review queue")
		return ""
	}
	path, err := w.opts.Reports.WritePendingReview(w.opts.ReviewDir, msgs)
	if err != nil {
		w.log.Warn().Err(err).Msg("writing pending review report")
		return ""
	}
	return path
}

// stage copies the document sidecar into the version directory.
func stage(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating version dir: %w", err)
	}
	dst := filepath.Join(dir, DocumentFile)

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("staging document: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("staging document: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("staging document: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("staging document: %w", err)
	}
	return dst, nil
}
