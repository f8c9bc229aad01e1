package machine

// dma.go implements the DMA controller: configuration setters and a
// long-lived asynchronous worker that copies between the simulated disk
// and main memory while the CPU continues executing (spec §4.4).

import (
	"sync"
	"time"

	"github.com/lfernandopg/arquisim/internal/obslog"
)

// DMAOp selects the transfer direction, matching original_source/tipos.h's
// DMA_LECTURA/DMA_ESCRITURA.
type DMAOp int

const (
	DMARead DMAOp = iota
	DMAWrite
)

func (o DMAOp) String() string {
	if o == DMAWrite {
		return "WRITE"
	}

	return "READ"
}

// DMAStatus is the outcome of the most recently completed transfer.
type DMAStatus int

const (
	DMAIdle DMAStatus = iota
	DMAOK
	DMAErr
)

// dmaLatency models the fixed seek-plus-rotation time spec §4.4 calls for.
const dmaLatency = 100 * time.Millisecond

// dmaRequest is the unit of work handed to the worker goroutine.
type dmaRequest struct {
	track, cylinder, sector int
	op                      DMAOp
	memAddr                 int
}

// DMA is the machine's single DMA device. A long-lived worker goroutine,
// started at construction, serves transfer requests over a channel — the
// alternative spec §9 explicitly licenses to a goroutine spawned fresh per
// Start() — and is grounded on original_source/dma.c's validate-sleep-
// lock-copy-unlock-status worker body.
type DMA struct {
	mu sync.Mutex

	track, cylinder, sector int
	op                      DMAOp
	memAddr                 int
	active                  bool
	status                  DMAStatus

	requests chan dmaRequest
	done     chan struct{}
	wg       sync.WaitGroup

	bus  *sync.Mutex
	mem  *Memory
	disk *Disk
	intr *Controller
	log  *obslog.Logger
}

// NewDMA wires a DMA controller to the bus mutex, memory, disk and
// interrupt controller it needs, and starts its worker goroutine. None of
// these collaborators are owned; the System decides their lifetime (spec
// §9's "explicit collaborator references, never circular ownership").
func NewDMA(bus *sync.Mutex, mem *Memory, disk *Disk, intr *Controller, log *obslog.Logger) *DMA {
	d := &DMA{
		bus:      bus,
		mem:      mem,
		disk:     disk,
		intr:     intr,
		log:      log,
		requests: make(chan dmaRequest, 1),
		done:     make(chan struct{}),
	}

	d.wg.Add(1)
	go d.worker()

	return d
}

func (d *DMA) SetTrack(v int)    { d.mu.Lock(); d.track = v; d.mu.Unlock() }
func (d *DMA) SetCylinder(v int) { d.mu.Lock(); d.cylinder = v; d.mu.Unlock() }
func (d *DMA) SetSector(v int)   { d.mu.Lock(); d.sector = v; d.mu.Unlock() }
func (d *DMA) SetOp(op DMAOp)    { d.mu.Lock(); d.op = op; d.mu.Unlock() }
func (d *DMA) SetMemAddr(v int)  { d.mu.Lock(); d.memAddr = v; d.mu.Unlock() }

// Status reports the outcome of the most recently completed transfer.
func (d *DMA) Status() DMAStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.status
}

// Active reports whether a transfer is currently in flight.
func (d *DMA) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.active
}

// Start launches the configured transfer. It refuses (returns false) if a
// transfer is already active, per spec §4.4.
func (d *DMA) Start() bool {
	d.mu.Lock()
	if d.active {
		d.mu.Unlock()
		return false
	}

	d.active = true
	req := dmaRequest{track: d.track, cylinder: d.cylinder, sector: d.sector, op: d.op, memAddr: d.memAddr}
	d.mu.Unlock()

	obslog.Message(d.log, "dma start "+req.op.String())

	select {
	case d.requests <- req:
	case <-d.done:
	}

	return true
}

// Shutdown stops the worker and waits for it to exit, joining any
// outstanding transfer (spec §4.4's "Shutdown joins any outstanding
// worker").
func (d *DMA) Shutdown() {
	close(d.done)
	d.wg.Wait()
}

// worker is the DMA's long-lived goroutine: it waits for a request, then
// runs the validate -> sleep -> lock-bus -> copy -> unlock -> status
// protocol from spec §4.4, one request at a time.
func (d *DMA) worker() {
	defer d.wg.Done()

	for {
		select {
		case req := <-d.requests:
			d.transfer(req)
		case <-d.done:
			return
		}
	}
}

func (d *DMA) transfer(req dmaRequest) {
	if !ValidGeometry(req.track, req.cylinder, req.sector) {
		d.finish(DMAErr)
		return
	}

	time.Sleep(dmaLatency)

	d.bus.Lock()

	switch req.op {
	case DMARead:
		w, err := d.disk.ReadSector(req.track, req.cylinder, req.sector)
		if err != nil {
			obslog.Errorf(d.log, "dma: %v", err)
			d.bus.Unlock()
			d.finish(DMAErr)
			return
		}

		d.mem.Write(req.memAddr, w)
	case DMAWrite:
		w := d.mem.Read(req.memAddr)
		d.disk.WriteSector(req.track, req.cylinder, req.sector, w)
	}

	d.bus.Unlock()

	d.finish(DMAOK)
}

func (d *DMA) finish(status DMAStatus) {
	d.mu.Lock()
	d.status = status
	d.active = false
	d.mu.Unlock()

	obslog.Message(d.log, "dma finish status="+statusName(status))

	d.intr.Raise(IntIODone)
}

func statusName(s DMAStatus) string {
	switch s {
	case DMAOK:
		return "OK"
	case DMAErr:
		return "ERR"
	default:
		return "IDLE"
	}
}
