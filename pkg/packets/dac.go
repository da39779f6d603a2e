package packets

import "encoding/binary"

const (
	FamilyDAC byte = 'D'

	TypeDACConfig    byte = 'C'
	TypeDACConfigAck byte = 'c'
	TypeDACStart     byte = 'S'
	TypeDACStartAck  byte = 's'
	TypeDACStop      byte = 'T'
	TypeDACStopAck   byte = 't'
)

// DACConfig requests configuration of the DAC's waveform generator, without
// starting playback.
type DACConfig struct {
	Prescaler     uint16
	Period        uint32
	Scale         uint8
	PointsPerWave uint16
	NumWaves      uint8
	Theta0        uint8
}

func (p DACConfig) Encode() []byte {
	buf := make([]byte, 2, 2+2+4+1+2+1+1)
	buf[0], buf[1] = FamilyDAC, TypeDACConfig
	buf = binary.BigEndian.AppendUint16(buf, p.Prescaler)
	buf = binary.BigEndian.AppendUint32(buf, p.Period)
	buf = append(buf, p.Scale)
	buf = binary.BigEndian.AppendUint16(buf, p.PointsPerWave)
	buf = append(buf, p.NumWaves, p.Theta0)
	return buf
}

func DecodeDACConfig(buf []byte) (DACConfig, error) {
	if err := checkDiscriminator(buf, FamilyDAC, TypeDACConfig); err != nil {
		return DACConfig{}, err
	}
	body := buf[2:]
	if err := need(body, 2+4+1+2+1+1); err != nil {
		return DACConfig{}, err
	}
	p := DACConfig{
		Prescaler: binary.BigEndian.Uint16(body[0:2]),
		Period:    binary.BigEndian.Uint32(body[2:6]),
		Scale:     body[6],
	}
	p.PointsPerWave = binary.BigEndian.Uint16(body[7:9])
	p.NumWaves = body[9]
	p.Theta0 = body[10]
	return p, nil
}

// DACConfigAck acknowledges a DACConfig request with the achieved sample
// rate.
type DACConfigAck struct {
	SampleRate float32
}

func (p DACConfigAck) Encode() []byte {
	buf := []byte{FamilyDAC, TypeDACConfigAck}
	return binary.BigEndian.AppendUint32(buf, float32bits(p.SampleRate))
}

func DecodeDACConfigAck(buf []byte) (DACConfigAck, error) {
	if err := checkDiscriminator(buf, FamilyDAC, TypeDACConfigAck); err != nil {
		return DACConfigAck{}, err
	}
	if err := need(buf[2:], 4); err != nil {
		return DACConfigAck{}, err
	}
	bits := binary.BigEndian.Uint32(buf[2:6])
	return DACConfigAck{SampleRate: float32frombits(bits)}, nil
}

// DACStart starts DAC playback with its current configuration.
type DACStart struct{}

func (p DACStart) Encode() []byte { return []byte{FamilyDAC, TypeDACStart} }

func DecodeDACStart(buf []byte) (DACStart, error) {
	if err := checkDiscriminator(buf, FamilyDAC, TypeDACStart); err != nil {
		return DACStart{}, err
	}
	return DACStart{}, nil
}

// DACStartAck acknowledges a DACStart request.
type DACStartAck struct{}

func (p DACStartAck) Encode() []byte { return []byte{FamilyDAC, TypeDACStartAck} }

func DecodeDACStartAck(buf []byte) (DACStartAck, error) {
	if err := checkDiscriminator(buf, FamilyDAC, TypeDACStartAck); err != nil {
		return DACStartAck{}, err
	}
	return DACStartAck{}, nil
}

// DACStop stops DAC playback.
type DACStop struct{}

func (p DACStop) Encode() []byte { return []byte{FamilyDAC, TypeDACStop} }

func DecodeDACStop(buf []byte) (DACStop, error) {
	if err := checkDiscriminator(buf, FamilyDAC, TypeDACStop); err != nil {
		return DACStop{}, err
	}
	return DACStop{}, nil
}

// DACStopAck acknowledges a DACStop request.
type DACStopAck struct{}

func (p DACStopAck) Encode() []byte { return []byte{FamilyDAC, TypeDACStopAck} }

func DecodeDACStopAck(buf []byte) (DACStopAck, error) {
	if err := checkDiscriminator(buf, FamilyDAC, TypeDACStopAck); err != nil {
		return DACStopAck{}, err
	}
	return DACStopAck{}, nil
}
