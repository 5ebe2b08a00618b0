package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	mbserver "github.com/tbrandon/mbserver"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
	"github.com/Agrid-Dev/coldload/internal/ports"
	"github.com/Agrid-Dev/coldload/internal/store"
)

// Config for the Modbus controller.
type Config struct {
	ProjectID string
	Addr      string
	UnitID    byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
}

type Controller struct {
	svc ports.ColdRoomService
	cfg Config

	serv *mbserver.Server
}

func New(svc ports.ColdRoomService, cfg Config) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = svc.ProjectID()
	}
	return &Controller{svc: svc, cfg: cfg}, nil
}

// holding is one writable input field exposed as a 16-bit register.
type holding struct {
	record store.RecordName
	field  string
	scale  float64
	signed bool
}

// Holding register map. Temperatures and hours are ×100, counts and masses ×1.
var holdingRegisters = []holding{
	0: {store.RecordConditions, "externalTemp", 100, true},
	1: {store.RecordConditions, "internalTemp", 100, true},
	2: {store.RecordConditions, "operatingHours", 100, false},
	3: {store.RecordConditions, "doorOpenings", 1, false},
	4: {store.RecordConditions, "humidity", 100, false},
	5: {store.RecordConditions, "numberOfPeople", 1, false},
	6: {store.RecordProduct, "dailyLoad", 1, false},
	7: {store.RecordProduct, "incomingTemp", 100, true},
	8: {store.RecordProduct, "outgoingTemp", 100, true},
	9: {store.RecordConditions, "pullDownTime", 100, false},
}

// Coil 0 toggles steam humidification.
var steamCoil = holding{record: store.RecordConditions, field: "steamHumidification"}

// Result status held in input register 0.
const (
	StatusOK uint16 = iota
	StatusInvalidInput
	StatusInconsistentInput
	StatusError
)

// Input registers after the status word are float32 values, two registers
// each, high word first.
var inputValues = []func(r coldroom.LoadResult) float64{
	func(r coldroom.LoadResult) float64 { return r.FinalLoad },
	func(r coldroom.LoadResult) float64 { return r.TotalTR },
	func(r coldroom.LoadResult) float64 { return r.TotalBeforeSafety },
	func(r coldroom.LoadResult) float64 { return r.Breakdown.Transmission.Total },
	func(r coldroom.LoadResult) float64 { return r.Breakdown.Product },
	func(r coldroom.LoadResult) float64 { return r.Breakdown.Respiration },
	func(r coldroom.LoadResult) float64 { return r.Breakdown.AirChange },
	func(r coldroom.LoadResult) float64 { return r.Breakdown.DoorOpening },
	func(r coldroom.LoadResult) float64 { return r.Breakdown.Miscellaneous.Total },
	func(r coldroom.LoadResult) float64 { return r.Breakdown.Heaters.Total },
	func(r coldroom.LoadResult) float64 { return r.Volume },
	func(r coldroom.LoadResult) float64 { return r.TemperatureDifference },
}

// InputRegisterCount is the status word plus every float32 pair.
var InputRegisterCount = 1 + 2*len(inputValues)

// Run starts the Modbus server and registers handlers that apply writes immediately and
// provide reads directly from the project service. It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers BEFORE starting the TCP listener to avoid races inside mbserver
	// between handler registration and the server's goroutines.
	// Read Coils (function 1) - steam humidification.
	serv.RegisterFunctionHandler(1, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		start, qty, ex := readRange(frame.GetData(), 2000)
		if ex != nil {
			return []byte{}, ex
		}
		// We only expose coil 0
		if start != 0 || qty != 1 {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		on, err := c.svc.Inputs().Flag(steamCoil.field)
		if err != nil {
			return []byte{}, &mbserver.IllegalDataValue
		}
		coilByte := byte(0)
		if on {
			coilByte = 0x01
		}
		// response: byte count (1) + coil bytes
		return []byte{1, coilByte}, &mbserver.Success
	})

	// Read Holding Registers (function 3) - the current inputs.
	serv.RegisterFunctionHandler(3, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		start, qty, ex := readRange(frame.GetData(), 125)
		if ex != nil {
			return []byte{}, ex
		}
		if start+qty > len(holdingRegisters) {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		in := c.svc.Inputs()
		regs := make([]uint16, 0, qty)
		for _, h := range holdingRegisters[start : start+qty] {
			v, err := in.Number(h.field)
			if err != nil {
				return []byte{}, &mbserver.IllegalDataValue
			}
			regs = append(regs, h.encode(v))
		}
		return registerResponse(regs), &mbserver.Success
	})

	// Read Input Registers (function 4) - status word and results.
	serv.RegisterFunctionHandler(4, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		start, qty, ex := readRange(frame.GetData(), 125)
		if ex != nil {
			return []byte{}, ex
		}
		if start+qty > InputRegisterCount {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		regs := c.inputRegisters()
		return registerResponse(regs[start : start+qty]), &mbserver.Success
	})

	// Write Single Coil (function 5) - steam humidification
	serv.RegisterFunctionHandler(5, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		data := frame.GetData()
		if len(data) < 4 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		addr := binary.BigEndian.Uint16(data[0:2])
		value := binary.BigEndian.Uint16(data[2:4])

		if addr != 0 {
			return []byte{}, &mbserver.IllegalDataAddress
		}

		var on bool
		switch value {
		case 0x0000:
			on = false
		case 0xFF00:
			on = true
		default:
			return []byte{}, &mbserver.IllegalDataValue
		}

		if ex := c.write(ctx, steamCoil, on); ex != nil {
			return []byte{}, ex
		}

		// echo request (address + value)
		resp := make([]byte, 4)
		copy(resp, data[0:4])
		return resp, &mbserver.Success
	})

	// Write Single Register (function 6)
	serv.RegisterFunctionHandler(6, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		data := frame.GetData()
		if len(data) < 4 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		addr := int(binary.BigEndian.Uint16(data[0:2]))
		value := binary.BigEndian.Uint16(data[2:4])

		if addr >= len(holdingRegisters) {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		h := holdingRegisters[addr]
		if ex := c.write(ctx, h, h.decode(value)); ex != nil {
			return []byte{}, ex
		}

		resp := make([]byte, 4)
		copy(resp, data[0:4])
		return resp, &mbserver.Success
	})

	// Write Multiple Registers (function 16)
	serv.RegisterFunctionHandler(16, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		d := frame.GetData()
		if len(d) < 5 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		start := binary.BigEndian.Uint16(d[0:2])
		quantity := binary.BigEndian.Uint16(d[2:4])
		byteCount := int(d[4])
		if quantity == 0 || byteCount != int(quantity)*2 || len(d) < 5+byteCount {
			return []byte{}, &mbserver.IllegalDataValue
		}
		if int(start)+int(quantity) > len(holdingRegisters) {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		for i := 0; i < int(quantity); i++ {
			h := holdingRegisters[int(start)+i]
			val := binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
			if ex := c.write(ctx, h, h.decode(val)); ex != nil {
				return []byte{}, ex
			}
		}

		resp := make([]byte, 4)
		binary.BigEndian.PutUint16(resp[0:2], start)
		binary.BigEndian.PutUint16(resp[2:4], quantity)
		return resp, &mbserver.Success
	})

	// Now start listening after all handlers are registered.
	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}
	log.WithFields(log.Fields{"addr": c.cfg.Addr, "unit_id": c.cfg.UnitID}).Info("modbus listening")

	// Block until ctx.Done()
	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

// write stores one field. Values that do not calculate are still stored and
// show up in the status register.
func (c *Controller) write(ctx context.Context, h holding, v any) *mbserver.Exception {
	if err := c.svc.SetField(ctx, h.record, h.field, v); err != nil {
		log.WithFields(log.Fields{"field": h.field, "error": err}).Error("modbus write")
		return &mbserver.SlaveDeviceFailure
	}
	return nil
}

func (c *Controller) inputRegisters() []uint16 {
	regs := make([]uint16, InputRegisterCount)
	r, err := c.svc.Result()
	regs[0] = status(err)
	if err != nil {
		return regs
	}
	for i, value := range inputValues {
		bits := math.Float32bits(float32(value(r)))
		regs[1+2*i] = uint16(bits >> 16)
		regs[2+2*i] = uint16(bits)
	}
	return regs
}

func status(err error) uint16 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, coldroom.ErrInconsistentInput):
		return StatusInconsistentInput
	case errors.Is(err, coldroom.ErrInvalidInput):
		return StatusInvalidInput
	default:
		return StatusError
	}
}

func readRange(data []byte, limit int) (start, qty int, ex *mbserver.Exception) {
	if len(data) < 4 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	start = int(binary.BigEndian.Uint16(data[0:2]))
	qty = int(binary.BigEndian.Uint16(data[2:4]))
	if qty == 0 || qty > limit {
		return 0, 0, &mbserver.IllegalDataValue
	}
	return start, qty, nil
}

// registerResponse builds byte count + register bytes.
func registerResponse(regs []uint16) []byte {
	byteCount := len(regs) * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i, r := range regs {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
	}
	return resp
}

func (h holding) encode(v float64) uint16 {
	r := int(math.Round(v * h.scale))
	if h.signed {
		return uint16(int16(min(max(r, math.MinInt16), math.MaxInt16)))
	}
	return uint16(min(max(r, 0), math.MaxUint16))
}

func (h holding) decode(u uint16) float64 {
	if h.signed {
		return float64(int16(u)) / h.scale
	}
	return float64(u) / h.scale
}
