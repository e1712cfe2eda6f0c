package proc

import (
	"encoding/binary"
)

// NameSize is the fixed size of a process name, including the terminator.
const NameSize = 16

// InfoSize is the encoded size of Info
const InfoSize = 4 + 4 + 4 + 4 + NameSize

// SysTimeSize is the encoded size of SysTime
const SysTimeSize = 8

// Info is the public snapshot of a process returned by get_process_info
type Info struct {
	PID   int    `json:"pid" yaml:"pid"`
	PPID  int    `json:"ppid" yaml:"ppid"`
	State State  `json:"state" yaml:"state"`
	Size  uint64 `json:"size" yaml:"size"`
	Name  string `json:"name" yaml:"name"`
	// Priority and Type are not part of the user-visible record.
	Priority int  `json:"priority" yaml:"priority"`
	Type     Type `json:"type" yaml:"type"`
}

// MarshalBinary encodes the user visible record: pid, ppid, state and size
// as little endian 32 bit integers followed by a NUL padded name.
func (i *Info) MarshalBinary() ([]byte, error) {
	data := make([]byte, InfoSize)
	binary.LittleEndian.PutUint32(data[0:], uint32(int32(i.PID)))
	binary.LittleEndian.PutUint32(data[4:], uint32(int32(i.PPID)))
	binary.LittleEndian.PutUint32(data[8:], uint32(int32(i.State)))
	binary.LittleEndian.PutUint32(data[12:], uint32(i.Size))
	copy(data[16:16+NameSize-1], i.Name)
	return data, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary
func (i *Info) UnmarshalBinary(data []byte) error {
	if len(data) < InfoSize {
		return errShortBuffer
	}
	i.PID = int(int32(binary.LittleEndian.Uint32(data[0:])))
	i.PPID = int(int32(binary.LittleEndian.Uint32(data[4:])))
	i.State = State(int32(binary.LittleEndian.Uint32(data[8:])))
	i.Size = uint64(binary.LittleEndian.Uint32(data[12:]))
	name := data[16 : 16+NameSize]
	end := 0
	for end < len(name) && name[end] != 0 {
		end++
	}
	i.Name = string(name[:end])
	return nil
}

// SysTime is the result of get_system_time
type SysTime struct {
	Ticks  uint64 `json:"ticks" yaml:"ticks"`
	Uptime uint64 `json:"uptime" yaml:"uptime"`
}

// MarshalBinary encodes ticks and uptime as little endian 32 bit integers
func (s *SysTime) MarshalBinary() ([]byte, error) {
	data := make([]byte, SysTimeSize)
	binary.LittleEndian.PutUint32(data[0:], uint32(s.Ticks))
	binary.LittleEndian.PutUint32(data[4:], uint32(s.Uptime))
	return data, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary
func (s *SysTime) UnmarshalBinary(data []byte) error {
	if len(data) < SysTimeSize {
		return errShortBuffer
	}
	s.Ticks = uint64(binary.LittleEndian.Uint32(data[0:]))
	s.Uptime = uint64(binary.LittleEndian.Uint32(data[4:]))
	return nil
}
