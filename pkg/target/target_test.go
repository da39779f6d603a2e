package target

import (
	"bytes"
	"io"
	"testing"

	"github.com/jbm9/argali-tether/pkg/hdlc"
	"github.com/jbm9/argali-tether/pkg/packets"
)

// fakeConn is an in-memory io.ReadWriter: writes go to Written, reads come
// from a preloaded inbound buffer.
type fakeConn struct {
	inbound *bytes.Buffer
	Written bytes.Buffer
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: &bytes.Buffer{}}
}

func (c *fakeConn) Read(p []byte) (int, error) {
	if c.inbound.Len() == 0 {
		return 0, nil
	}
	return c.inbound.Read(p)
}

func (c *fakeConn) Write(p []byte) (int, error) {
	return c.Written.Write(p)
}

func (c *fakeConn) feed(b []byte) {
	c.inbound.Write(b)
}

func TestNewPendingInputInitiallyFalse(t *testing.T) {
	tgt := New(newFakeConn())
	if tgt.PendingInput() {
		t.Fatalf("expected no pending input on a fresh Target")
	}
}

func TestEchoSetsPendingUntilReplyArrives(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	tgt.Echo([]byte("hi mom"))
	if !tgt.PendingEcho || !tgt.PendingInput() {
		t.Fatalf("expected PendingEcho after Echo()")
	}
	if tgt.LastEchoSent.IsZero() {
		t.Fatalf("expected LastEchoSent to be set")
	}

	if err := tgt.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if conn.Written.Len() == 0 {
		t.Fatalf("expected the echo request to be written to the wire")
	}

	reply := packets.EchoReply{Content: []byte("hi mom")}
	conn.feed(hdlc.Frame(reply.Encode(), hdlc.AddressDevice, 0))

	// Each Poll reads at most pollReadSize bytes, so poll until the whole
	// reply frame has been read.
	for conn.inbound.Len() > 0 {
		if err := tgt.Poll(); err != nil {
			t.Fatalf("poll: %v", err)
		}
	}
	if tgt.PendingEcho {
		t.Fatalf("expected PendingEcho to clear after an EchoReply")
	}
	if !tgt.LastEchoSent.IsZero() {
		t.Fatalf("expected LastEchoSent to reset after an EchoReply")
	}
}

func TestIncomingEchoRequestQueuesAReply(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	req := packets.EchoRequest{Content: []byte("ping")}
	conn.feed(hdlc.Frame(req.Encode(), hdlc.AddressDevice, 0))

	for conn.inbound.Len() > 0 {
		if err := tgt.Poll(); err != nil {
			t.Fatalf("poll: %v", err)
		}
	}

	// The Poll that dispatches the request also sends the queued reply, so
	// the queue is empty again and the reply is read back from the wire.
	if len(tgt.txQueue) != 0 {
		t.Fatalf("expected the queued reply to have been sent, %d frames still queued", len(tgt.txQueue))
	}

	var got []hdlc.Frame
	d := hdlc.NewDeframer(func(f hdlc.Frame) { got = append(got, f) })
	d.Rx(conn.Written.Bytes())
	if len(got) != 1 {
		t.Fatalf("expected the written bytes to deframe to one frame")
	}
	reply, err := packets.DecodeEchoReply(got[0].Payload)
	if err != nil {
		t.Fatalf("decode queued reply: %v", err)
	}
	// The reply carries the request payload after its two discriminator
	// bytes, so the request's own length prefix is part of the content.
	if string(reply.Content) != "\x00\x04ping" {
		t.Fatalf("queued reply content = %q, want %q", reply.Content, "\x00\x04ping")
	}
}

func TestDACHandlerClearsPendingDAC(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	tgt.DACStartRequest()
	if !tgt.PendingDAC {
		t.Fatalf("expected PendingDAC after DACStartRequest")
	}

	ack := packets.DACStartAck{}
	conn.feed(hdlc.Frame(ack.Encode(), hdlc.AddressDevice, 0))
	if err := tgt.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if tgt.PendingDAC {
		t.Fatalf("expected PendingDAC to clear on any DAC-family reply")
	}
}

func TestADCCaptureAccumulatesUntilComplete(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	tgt.ADCCaptureRequest(1, 1, 4, 2, 1, []byte{0, 1}) // 4*2*2 = 16 bytes expected

	var gotBuf []byte
	tgt.SetADCCallback(func(buf []byte) { gotBuf = append([]byte(nil), buf...) })

	reply1 := append([]byte{packets.FamilyADC, packets.TypeADCConfig}, make([]byte, 10)...)
	conn.feed(hdlc.Frame(reply1, hdlc.AddressDevice, 0))
	for conn.inbound.Len() > 0 {
		if err := tgt.Poll(); err != nil {
			t.Fatalf("poll: %v", err)
		}
	}
	if tgt.PendingADCBytes != 6 {
		t.Fatalf("expected 6 bytes still pending, got %d", tgt.PendingADCBytes)
	}
	if gotBuf != nil {
		t.Fatalf("ADC callback fired before capture complete")
	}

	reply2 := append([]byte{packets.FamilyADC, packets.TypeADCConfig}, make([]byte, 6)...)
	conn.feed(hdlc.Frame(reply2, hdlc.AddressDevice, 0))
	for conn.inbound.Len() > 0 {
		if err := tgt.Poll(); err != nil {
			t.Fatalf("poll: %v", err)
		}
	}
	if tgt.PendingADCBytes != 0 {
		t.Fatalf("expected 0 bytes pending after full capture, got %d", tgt.PendingADCBytes)
	}
	if len(gotBuf) != 16 {
		t.Fatalf("expected 16 accumulated bytes, got %d", len(gotBuf))
	}
}

func TestLoglineCallbackInvokedForLoggingAddress(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	var got hdlc.Frame
	tgt.RegisterLoglineCallback(func(f hdlc.Frame) { got = f })

	conn.feed(hdlc.Frame([]byte("boot complete"), hdlc.AddressLogging, 0))
	for conn.inbound.Len() > 0 {
		if err := tgt.Poll(); err != nil {
			t.Fatalf("poll: %v", err)
		}
	}
	if string(got.Payload) != "boot complete" {
		t.Fatalf("logline callback payload = %q", got.Payload)
	}
}

func TestUnknownFamilyCallback(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	fired := 0
	tgt.RegisterUnknownFamilyCallback(func(hdlc.Frame) { fired++ })

	conn.feed(hdlc.Frame([]byte{'Z', 'Z'}, hdlc.AddressDevice, 0))
	if err := tgt.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if fired != 1 {
		t.Fatalf("unknown-family callback fired %d times, want 1", fired)
	}
}

func TestErrorCallback(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	fired := 0
	tgt.RegisterErrorCallback(func([]byte) { fired++ })

	conn.feed(hdlc.Frame([]byte{'!', 'X'}, hdlc.AddressDevice, 0))
	if err := tgt.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if fired != 1 {
		t.Fatalf("error callback fired %d times, want 1", fired)
	}
}

func TestPollWritesIdleByteWhenQueueEmpty(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	if err := tgt.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if conn.Written.Len() != 1 || conn.Written.Bytes()[0] != '~' {
		t.Fatalf("expected a single idle byte, got % X", conn.Written.Bytes())
	}
}

func TestPollPadsMisalignedFramesWithEightIdleBytes(t *testing.T) {
	conn := newFakeConn()
	tgt := New(conn)

	tgt.QueuePacket(packets.SysReset{})
	if err := tgt.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}

	written := conn.Written.Bytes()
	if !bytes.HasPrefix(written, []byte{'~', '~', '~'}) {
		t.Fatalf("expected a 3-byte preamble, got % X", written[:3])
	}

	frame := hdlc.Frame(packets.SysReset{}.Encode(), hdlc.AddressDevice, 0)
	rest := written[3:]
	if !bytes.HasPrefix(rest, frame) {
		t.Fatalf("expected the framed bytes right after the preamble")
	}
	tail := rest[len(frame):]
	if len(frame)%8 != 0 {
		if len(tail) != 8 {
			t.Fatalf("expected 8 idle padding bytes, got %d", len(tail))
		}
		for _, b := range tail {
			if b != '~' {
				t.Fatalf("padding byte is %q, want '~'", b)
			}
		}
	} else if len(tail) != 0 {
		t.Fatalf("frame already a multiple of 8, expected no padding, got %d bytes", len(tail))
	}
}

var _ io.ReadWriter = (*fakeConn)(nil)
