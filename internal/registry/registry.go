// Package registry records onboarded device types and the history of their
// spec versions.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sprite-ai/specgate/internal/fileutil"
	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/logger"
	"github.com/sprite-ai/specgate/internal/model"
)

var (
	ErrDeviceExists   = errors.New("device type already registered")
	ErrDeviceNotFound = errors.New("device type not found")
	ErrVersionExists  = errors.New("version already exists")
)

// UnrecognizedMessage is a message the taxonomy did not know when the
// version was recorded.
type UnrecognizedMessage struct {
	MessageID string           `json:"message_id"`
	Direction model.Direction  `json:"direction"`
	Citations []model.Citation `json:"citations"`
}

// Version is one recorded spec version of a device.
type Version struct {
	ID                   string                `json:"id"`
	Version              string                `json:"version"`
	PDFHash              string                `json:"pdf_hash"`
	DocumentPath         string                `json:"document_path"`
	IndexPath            string                `json:"index_path"`
	ReportPath           string                `json:"report_path"`
	Timestamp            time.Time             `json:"timestamp"`
	IsBaseline           bool                  `json:"is_baseline"`
	RebuildPerformed     bool                  `json:"rebuild_performed"`
	ApprovalReason       string                `json:"approval_reason,omitempty"`
	ImpactCounts         impact.Counts         `json:"impact_counts"`
	MessageSummary       inventory.Summary     `json:"message_summary"`
	UnrecognizedMessages []UnrecognizedMessage `json:"unrecognized_messages"`
}

// Unrecognized converts an inventory's unrecognized messages for recording.
func Unrecognized(inv *inventory.MessageInventory) []UnrecognizedMessage {
	out := []UnrecognizedMessage{}
	if inv == nil {
		return out
	}
	for _, m := range inv.Unrecognized {
		out = append(out, UnrecognizedMessage{MessageID: m.MessageID, Direction: m.Direction, Citations: m.Citations})
	}
	return out
}

// Device is a device type with its full version history, oldest first.
type Device struct {
	Vendor         string    `json:"vendor"`
	Model          string    `json:"model"`
	DeviceName     string    `json:"device_name"`
	CurrentVersion string    `json:"current_version"`
	SpecHistory    []Version `json:"spec_history"`
}

// DeviceID is the registry key for a vendor and model.
func DeviceID(vendor, model string) string {
	return vendor + "_" + model
}

func (d *Device) ID() string {
	return DeviceID(d.Vendor, d.Model)
}

// Version returns the recorded version v.
func (d *Device) Version(v string) (Version, bool) {
	for _, sv := range d.SpecHistory {
		if sv.Version == v {
			return sv, true
		}
	}
	return Version{}, false
}

// Current returns the current version record.
func (d *Device) Current() (Version, bool) {
	return d.Version(d.CurrentVersion)
}

func (d *Device) clone() Device {
	cp := *d
	cp.SpecHistory = append([]Version(nil), d.SpecHistory...)
	return cp
}

var timeNow = time.Now

// Registry is a JSON-file registry of device types. It is safe for
// concurrent use within one process; every change is saved before the call
// returns.
type Registry struct {
	path    string
	mu      sync.Mutex
	devices map[string]*Device
	log     zerolog.Logger
}

// Open loads the registry at path. A missing file is an empty registry.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path, devices: make(map[string]*Device), log: logger.Component("registry")}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	if err := json.Unmarshal(data, &r.devices); err != nil {
		return nil, fmt.Errorf("decoding registry %s: %w", path, err)
	}
	if r.devices == nil {
		r.devices = make(map[string]*Device)
	}
	return r, nil
}

// Path returns the backing file.
func (r *Registry) Path() string { return r.path }

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.devices, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	if err := fileutil.WriteAtomic(r.path, data); err != nil {
		return fmt.Errorf("saving registry: %w", err)
	}
	return nil
}

func prepare(v *Version) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = timeNow().UTC()
	}
	if v.UnrecognizedMessages == nil {
		v.UnrecognizedMessages = []UnrecognizedMessage{}
	}
}

// Register adds a new device type with its first version and returns the
// device id.
func (r *Registry) Register(vendor, model, deviceName string, v Version) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := DeviceID(vendor, model)
	if _, ok := r.devices[id]; ok {
		return "", fmt.Errorf("%w: %s", ErrDeviceExists, id)
	}
	prepare(&v)
	r.devices[id] = &Device{
		Vendor:         vendor,
		Model:          model,
		DeviceName:     deviceName,
		CurrentVersion: v.Version,
		SpecHistory:    []Version{v},
	}
	if err := r.save(); err != nil {
		delete(r.devices, id)
		return "", err
	}
	r.log.Info().Str("device", id).Str("version", v.Version).Msg("device registered")
	return id, nil
}

// AddVersion appends v to a device's history and makes it current.
func (r *Registry) AddVersion(deviceID string, v Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if _, exists := d.Version(v.Version); exists {
		return fmt.Errorf("%w: %s v%s", ErrVersionExists, deviceID, v.Version)
	}

	prepare(&v)
	prev := d.clone()
	d.SpecHistory = append(d.SpecHistory, v)
	d.CurrentVersion = v.Version
	if err := r.save(); err != nil {
		*d = prev
		return err
	}
	r.log.Info().Str("device", deviceID).Str("version", v.Version).Bool("rebuild", v.RebuildPerformed).Msg("version recorded")
	return nil
}

// Device returns a copy of the device.
func (r *Registry) Device(id string) (Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return Device{}, false
	}
	return d.clone(), true
}

// Exists reports whether a device type is registered.
func (r *Registry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.devices[id]
	return ok
}

// List returns the registered device ids, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Latest returns the current version of a device.
func (r *Registry) Latest(id string) (Version, bool) {
	d, ok := r.Device(id)
	if !ok {
		return Version{}, false
	}
	return d.Current()
}

// History returns every recorded version of a device, oldest first.
func (r *Registry) History(id string) []Version {
	d, ok := r.Device(id)
	if !ok {
		return nil
	}
	return d.SpecHistory
}
