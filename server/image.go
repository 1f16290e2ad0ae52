package server

import (
	"fmt"
	"sync"

	"github.com/gridtie/modbus/packet"
)

// ErrAddressOutOfRange is returned when a read or write range does not fit the 65,536-address space.
var ErrAddressOutOfRange = fmt.Errorf("%w: address range out of bounds", packet.ErrIllegalDataAddress)

// DataImage is one unit's address spaces: coils, discrete inputs, holding registers and input
// registers, each sized 65,536 and bit/word addressable. Storage is sparse - an address that was
// never written reads back as zero/false, matching real device power-up behavior.
//
// A single lock guards the whole image rather than one lock per address space: per spec.md §9 this
// is sufficient because serialization is already scoped to one unit, and within one unit reads and
// writes across different address spaces are rare enough that splitting the lock further buys
// nothing but complexity.
type DataImage struct {
	mu sync.RWMutex

	coils            map[uint16]bool
	discreteInputs   map[uint16]bool
	holdingRegisters map[uint16]uint16
	inputRegisters   map[uint16]uint16
}

// NewDataImage creates an empty DataImage; every address reads back as zero/false until written.
func NewDataImage() *DataImage {
	return &DataImage{
		coils:            make(map[uint16]bool),
		discreteInputs:   make(map[uint16]bool),
		holdingRegisters: make(map[uint16]uint16),
		inputRegisters:   make(map[uint16]uint16),
	}
}

func checkRange(address, quantity uint16) error {
	if quantity == 0 {
		return fmt.Errorf("%w: quantity must be non-zero", packet.ErrIllegalDataValue)
	}
	if int(address)+int(quantity) > 65536 {
		return ErrAddressOutOfRange
	}
	return nil
}

// ReadCoils returns quantity coil states starting at address.
func (d *DataImage) ReadCoils(address, quantity uint16) ([]bool, error) {
	return d.readBits(d.coils, address, quantity)
}

// ReadDiscreteInputs returns quantity discrete input states starting at address.
func (d *DataImage) ReadDiscreteInputs(address, quantity uint16) ([]bool, error) {
	return d.readBits(d.discreteInputs, address, quantity)
}

func (d *DataImage) readBits(space map[uint16]bool, address, quantity uint16) ([]bool, error) {
	if err := checkRange(address, quantity); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]bool, quantity)
	for i := uint16(0); i < quantity; i++ {
		result[i] = space[address+i]
	}
	return result, nil
}

// ReadHoldingRegisters returns quantity holding register values starting at address.
func (d *DataImage) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	return d.readWords(d.holdingRegisters, address, quantity)
}

// ReadInputRegisters returns quantity input register values starting at address.
func (d *DataImage) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	return d.readWords(d.inputRegisters, address, quantity)
}

func (d *DataImage) readWords(space map[uint16]uint16, address, quantity uint16) ([]uint16, error) {
	if err := checkRange(address, quantity); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]uint16, quantity)
	for i := uint16(0); i < quantity; i++ {
		result[i] = space[address+i]
	}
	return result, nil
}

// WriteSingleCoil sets the coil at address.
func (d *DataImage) WriteSingleCoil(address uint16, value bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.coils[address] = value
	return nil
}

// WriteSingleRegister sets the holding register at address.
func (d *DataImage) WriteSingleRegister(address uint16, value uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.holdingRegisters[address] = value
	return nil
}

// WriteMultipleCoils sets consecutive coils starting at address. The whole range is applied
// atomically with respect to concurrent readers of this image.
func (d *DataImage) WriteMultipleCoils(address uint16, values []bool) error {
	if err := checkRange(address, uint16(len(values))); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, v := range values {
		d.coils[address+uint16(i)] = v
	}
	return nil
}

// WriteMultipleRegisters sets consecutive holding registers starting at address. The whole range
// is applied atomically with respect to concurrent readers of this image.
func (d *DataImage) WriteMultipleRegisters(address uint16, values []uint16) error {
	if err := checkRange(address, uint16(len(values))); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, v := range values {
		d.holdingRegisters[address+uint16(i)] = v
	}
	return nil
}

// SeedHoldingRegister sets an initial holding register value, e.g. from a configuration file.
func (d *DataImage) SeedHoldingRegister(address, value uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.holdingRegisters[address] = value
}

// SeedInputRegister sets an initial input register value, e.g. from a configuration file.
func (d *DataImage) SeedInputRegister(address, value uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputRegisters[address] = value
}

// SeedCoil sets an initial coil value, e.g. from a configuration file.
func (d *DataImage) SeedCoil(address uint16, value bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.coils[address] = value
}

// SeedDiscreteInput sets an initial discrete input value, e.g. from a configuration file.
func (d *DataImage) SeedDiscreteInput(address uint16, value bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discreteInputs[address] = value
}
