package packets

const (
	FamilyEcho byte = 'E'

	TypeEchoRequest byte = 'Q'
	TypeEchoReply   byte = 'R'
	TypeEchoTable   byte = 'U'
)

// EchoRequest asks the remote side to echo Content back. It is also the
// shape of an unsolicited echo request the device sends us, which Target
// answers with an EchoReply.
type EchoRequest struct {
	Content []byte
}

// Encode serializes the packet to its wire payload (without HDLC framing).
func (p EchoRequest) Encode() []byte {
	buf := []byte{FamilyEcho, TypeEchoRequest}
	return appendVarBytesU16(buf, p.Content)
}

// DecodeEchoRequest parses an EchoRequest from a frame payload.
func DecodeEchoRequest(buf []byte) (EchoRequest, error) {
	if err := checkDiscriminator(buf, FamilyEcho, TypeEchoRequest); err != nil {
		return EchoRequest{}, err
	}
	content, _, err := readVarBytesU16(buf[2:])
	if err != nil {
		return EchoRequest{}, err
	}
	return EchoRequest{Content: content}, nil
}

// EchoReply is the response to an EchoRequest.
type EchoReply struct {
	Content []byte
}

func (p EchoReply) Encode() []byte {
	buf := []byte{FamilyEcho, TypeEchoReply}
	return appendVarBytesU16(buf, p.Content)
}

func DecodeEchoReply(buf []byte) (EchoReply, error) {
	if err := checkDiscriminator(buf, FamilyEcho, TypeEchoReply); err != nil {
		return EchoReply{}, err
	}
	content, _, err := readVarBytesU16(buf[2:])
	if err != nil {
		return EchoReply{}, err
	}
	return EchoReply{Content: content}, nil
}

// EchoTableReply is a full 256-byte table dump sent in reply to an echo
// request with the 'U' subtype.
type EchoTableReply struct {
	Content [256]byte
}

func (p EchoTableReply) Encode() []byte {
	buf := make([]byte, 0, 2+len(p.Content))
	buf = append(buf, FamilyEcho, TypeEchoTable)
	return append(buf, p.Content[:]...)
}

func DecodeEchoTableReply(buf []byte) (EchoTableReply, error) {
	if err := checkDiscriminator(buf, FamilyEcho, TypeEchoTable); err != nil {
		return EchoTableReply{}, err
	}
	if err := need(buf[2:], 256); err != nil {
		return EchoTableReply{}, err
	}
	var p EchoTableReply
	copy(p.Content[:], buf[2:2+256])
	return p, nil
}
