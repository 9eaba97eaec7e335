package session

import "testing"

func TestClassifyBody(t *testing.T) {
	cases := []struct {
		name string
		body []byte
		want ReplyKind
		fan  uint16
	}{
		{"expire", []byte{ctrlSubFull}, KindExpire, 0},
		{"reidentify", []byte{ctrlSubAccept}, KindReIdentify, 0},
		{"ack-one", []byte{ctrlAckOrNotice}, KindAckOne, 0},
		{"ack-fan", []byte{ctrlAckOrNotice, 0x00, 0x03}, KindAckFan, 3},
		{"notice", []byte{ctrlNotice, 'h', 'i'}, KindNotice, 0},
		{"user", []byte("kitchen ping"), KindUser, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := classifyBody(c.body)
			if got.Kind != c.want {
				t.Fatalf("classifyBody(%v) kind = %v, want %v", c.body, got.Kind, c.want)
			}
			if got.Kind == KindAckFan && got.FanoutCount != c.fan {
				t.Fatalf("fanout count = %d, want %d", got.FanoutCount, c.fan)
			}
		})
	}
}

func TestClassifyBodySenderSplit(t *testing.T) {
	got := classifyBody([]byte("kitchen ping"))
	if got.Sender != "kitchen" || string(got.Contents) != "ping" {
		t.Fatalf("got sender=%q contents=%q", got.Sender, got.Contents)
	}

	got = classifyBody([]byte("noSpaceHere"))
	if got.Sender != "<unspecified>" || string(got.Contents) != "noSpaceHere" {
		t.Fatalf("got sender=%q contents=%q", got.Sender, got.Contents)
	}
}
