package services

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"ssfatpf-backend-go/internal/models"
)

type HostHealth struct {
	CapturedAt        time.Time `json:"capturedAt"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	DiskTotalBytes    int64     `json:"diskTotalBytes"`
	DiskUsedBytes     int64     `json:"diskUsedBytes"`
	ProcessCPULoad    float64   `json:"processCpuLoad"`
	SystemCPULoad     float64   `json:"systemCpuLoad"`
}

// CaptureHostHealth samples the process and host. Probes that fail leave
// their fields at zero.
func CaptureHostHealth(diskPath string) HostHealth {
	sample := HostHealth{CapturedAt: time.Now().UTC()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil && info != nil {
			sample.ProcessRSSBytes = int64(info.RSS)
		}
		if pct, err := proc.CPUPercent(); err == nil {
			sample.ProcessCPULoad = pct / 100.0
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		sample.SystemMemoryTotal = int64(vm.Total)
		sample.SystemMemoryUsed = int64(vm.Total - vm.Available)
	}
	usage, err := disk.Usage(diskPath)
	if err != nil {
		usage, err = disk.Usage("/")
	}
	if err == nil {
		sample.DiskTotalBytes = int64(usage.Total)
		sample.DiskUsedBytes = int64(usage.Used)
	}
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		sample.SystemCPULoad = pcts[0] / 100.0
	}
	return sample
}

type DashboardOverview struct {
	WelcomeName    string  `json:"welcomeName,omitempty"`
	TotalEvents    int64   `json:"totalEvents"`
	PeopleReached  int64   `json:"peopleReached"`
	TotalDonations float64 `json:"totalDonations"`
	DonationCount  int64   `json:"donationCount"`
}

type DashboardFrame struct {
	Overview DashboardOverview `json:"overview"`
	Host     *HostHealth       `json:"host,omitempty"`
}

// FrameWriter is the part of a websocket connection the hub needs.
type FrameWriter interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Dashboard combines the tracker snapshots into overview frames and pushes
// them to connected clients whenever a tracker changes or a host sample is
// taken.
type Dashboard struct {
	events    *EventTracker
	donations *DonationTracker
	diskPath  string

	mu       sync.Mutex
	clients  map[FrameWriter]bool
	lastHost *HostHealth

	ch      chan DashboardFrame
	cancels []func()
}

func NewDashboard(events *EventTracker, donations *DonationTracker, diskPath string) *Dashboard {
	d := &Dashboard{
		events:    events,
		donations: donations,
		diskPath:  diskPath,
		clients:   map[FrameWriter]bool{},
		ch:        make(chan DashboardFrame, 16),
	}
	d.cancels = append(d.cancels,
		events.Subscribe(func(EventSnapshot) { d.Broadcast(d.Frame()) }),
		donations.Subscribe(func(models.DonationStats) { d.Broadcast(d.Frame()) }),
	)
	return d
}

// Overview reads the current aggregates. welcome is the signed-in user's
// display name, empty for broadcast frames.
func (d *Dashboard) Overview(welcome string) DashboardOverview {
	events := d.events.Snapshot().Stats
	donations := d.donations.Stats()
	return DashboardOverview{
		WelcomeName:    welcome,
		TotalEvents:    events.TotalEvents,
		PeopleReached:  events.TotalPeopleReached,
		TotalDonations: donations.TotalDonations,
		DonationCount:  donations.DonationCount,
	}
}

func (d *Dashboard) Frame() DashboardFrame {
	d.mu.Lock()
	host := d.lastHost
	d.mu.Unlock()
	return DashboardFrame{Overview: d.Overview(""), Host: host}
}

// Sample takes a host reading and broadcasts a fresh frame.
func (d *Dashboard) Sample() {
	host := CaptureHostHealth(d.diskPath)
	d.mu.Lock()
	d.lastHost = &host
	d.mu.Unlock()
	d.Broadcast(d.Frame())
}

// Run delivers queued frames until ctx is done, sampling the host every
// interval.
func (d *Dashboard) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer d.stop()
	for {
		select {
		case frame := <-d.ch:
			d.deliver(frame)
		case <-ticker.C:
			d.Sample()
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dashboard) Broadcast(frame DashboardFrame) {
	select {
	case d.ch <- frame:
	default:
	}
}

func (d *Dashboard) deliver(frame DashboardFrame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.clients {
		if err := conn.WriteJSON(frame); err != nil {
			log.Debug().Err(err).Msg("dashboard client dropped")
			delete(d.clients, conn)
			_ = conn.Close()
		}
	}
}

// Add registers a client and sends it the current frame straight away.
func (d *Dashboard) Add(conn FrameWriter) error {
	frame := d.Frame()
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := conn.WriteJSON(frame); err != nil {
		return err
	}
	d.clients[conn] = true
	return nil
}

func (d *Dashboard) Remove(conn FrameWriter) {
	d.mu.Lock()
	delete(d.clients, conn)
	d.mu.Unlock()
}

func (d *Dashboard) Clients() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

func (d *Dashboard) stop() {
	for _, cancel := range d.cancels {
		cancel()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.clients {
		_ = conn.Close()
		delete(d.clients, conn)
	}
}
