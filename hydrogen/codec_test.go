package hydrogen

import (
	"testing"
	"time"

	"github.com/go-test/deep"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestCodecRegistered(t *testing.T) {
	t.Parallel()

	if encoding.GetCodec(CodecName) == nil {
		t.Fatalf("codec %q not registered", CodecName)
	}
}

func TestCodecProtoMessage(t *testing.T) {
	t.Parallel()

	c := codec{}

	out, err := c.Marshal(wrapperspb.String("web-01"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if string(out) != `"web-01"` {
		t.Errorf("Marshal() = %s, want protojson wrapper encoding", out)
	}

	got := &wrapperspb.StringValue{}

	err = c.Unmarshal(out, got)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.GetValue() != "web-01" {
		t.Errorf("Unmarshal() = %q, want web-01", got.GetValue())
	}
}

func TestCodecVMEntry(t *testing.T) {
	t.Parallel()

	c := codec{}
	lastSeen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	want := VMEntry{VM: exampleVM, LastSeen: lastSeen}

	out, err := c.Marshal(&want)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	wantJSON := `{"hostname":"web-01","os":"linux","ipv4":"10.0.0.5","ipv6":"::1","host":"hv-3",` +
		`"uuid":"a1b2c3","online":true,"last_seen":"2024-05-01T12:00:00Z"}`
	if string(out) != wantJSON {
		t.Errorf("Marshal() = %s, want %s", out, wantJSON)
	}

	var got VMEntry

	err = c.Unmarshal(out, &got)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	diff := deep.Equal(got, want)
	if diff != nil {
		t.Errorf("compare failed: %v", diff)
	}
}
