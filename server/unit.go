package server

import "sync"

// UnitRegistry maps Modbus unit ids to the DataImage that answers requests addressed to them.
// Registration is expected to happen at startup and rarely afterwards, while dispatch reads the
// map on every request, so the lock is a sync.RWMutex whose readers run concurrently, and it is
// not shared with any individual image's own lock.
type UnitRegistry struct {
	mu    sync.RWMutex
	units map[uint8]*DataImage
}

// NewUnitRegistry creates an empty unit registry.
func NewUnitRegistry() *UnitRegistry {
	return &UnitRegistry{units: make(map[uint8]*DataImage)}
}

// Add registers image under unitID, replacing any image previously registered for that id.
func (r *UnitRegistry) Add(unitID uint8, image *DataImage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unitID] = image
}

// Remove unregisters unitID, if present.
func (r *UnitRegistry) Remove(unitID uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.units, unitID)
}

// Get returns the image registered for unitID, if any.
func (r *UnitRegistry) Get(unitID uint8) (*DataImage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	image, ok := r.units[unitID]
	return image, ok
}

// List returns the currently registered unit ids, in no particular order.
func (r *UnitRegistry) List() []uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint8, 0, len(r.units))
	for id := range r.units {
		ids = append(ids, id)
	}
	return ids
}
