package packets

import "encoding/binary"

const (
	FamilyADC byte = 'A'

	TypeADCConfig byte = 'C'
)

// ADCConfig requests a capture of one or more ADC channels. The device's
// reply is a continuous stream of sample bytes rather than a discrete
// packet, and is consumed directly by Target's PendingADCBytes counter
// instead of being decoded into a struct here.
type ADCConfig struct {
	Prescaler   uint16
	Period      uint32
	NumPoints   uint16
	SampleWidth uint8
	SampleTime  uint16
	Channels    []byte
}

func (p ADCConfig) Encode() []byte {
	buf := []byte{FamilyADC, TypeADCConfig}
	buf = binary.BigEndian.AppendUint16(buf, p.Prescaler)
	buf = binary.BigEndian.AppendUint32(buf, p.Period)
	buf = binary.BigEndian.AppendUint16(buf, p.NumPoints)
	buf = append(buf, p.SampleWidth)
	buf = binary.BigEndian.AppendUint16(buf, p.SampleTime)
	return appendVarBytesU8(buf, p.Channels)
}

func DecodeADCConfig(buf []byte) (ADCConfig, error) {
	if err := checkDiscriminator(buf, FamilyADC, TypeADCConfig); err != nil {
		return ADCConfig{}, err
	}
	body := buf[2:]
	if err := need(body, 2+4+2+1+2); err != nil {
		return ADCConfig{}, err
	}
	p := ADCConfig{
		Prescaler:   binary.BigEndian.Uint16(body[0:2]),
		Period:      binary.BigEndian.Uint32(body[2:6]),
		NumPoints:   binary.BigEndian.Uint16(body[6:8]),
		SampleWidth: body[8],
		SampleTime:  binary.BigEndian.Uint16(body[9:11]),
	}
	channels, _, err := readVarBytesU8(body[11:])
	if err != nil {
		return ADCConfig{}, err
	}
	p.Channels = channels
	return p, nil
}
