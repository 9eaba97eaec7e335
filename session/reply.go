package session

// ReplyKind is the tagged sum over the server's possible reply shapes,
// derived from (signature-valid flag, first body byte, body length) per the
// "runtime dispatch on status byte" design note: an explicit tagged union
// rather than nested conditionals.
type ReplyKind int

const (
	KindInvalidSignature ReplyKind = iota
	KindSubAccept
	KindSubFull
	KindReIdentify
	KindExpire
	KindAckOne
	KindAckFan
	KindNotice
	KindUser
)

// Reply is the classified result of decoding one ingress datagram's
// plaintext in the Operating state.
type Reply struct {
	Kind        ReplyKind
	FanoutCount uint16 // only meaningful for KindAckFan
	Sender      string // only meaningful for KindUser
	Contents    []byte // KindUser: message text; KindNotice: notice text
	Outdated    bool
	Future      bool
}

// classifyBody derives a Reply from a message body already split from its
// trailing timestamp and confirmed to have a valid signature. The split on
// the first ASCII space yields (sender, contents); if no space is present,
// sender is "<unspecified>" and contents is the whole body.
func classifyBody(body []byte) Reply {
	switch {
	case len(body) == 1 && body[0] == ctrlSubFull:
		return Reply{Kind: KindExpire}
	case len(body) == 1 && body[0] == ctrlSubAccept:
		return Reply{Kind: KindReIdentify}
	case len(body) == 1 && body[0] == ctrlAckOrNotice:
		return Reply{Kind: KindAckOne}
	case len(body) == 3 && body[0] == ctrlAckOrNotice:
		count := uint16(body[1])<<8 | uint16(body[2])
		return Reply{Kind: KindAckFan, FanoutCount: count}
	case len(body) >= 1 && body[0] == ctrlNotice:
		return Reply{Kind: KindNotice, Contents: body[1:]}
	default:
		sender, contents := splitSenderContents(body)
		return Reply{Kind: KindUser, Sender: sender, Contents: contents}
	}
}

func splitSenderContents(body []byte) (sender string, contents []byte) {
	for i, b := range body {
		if b == ' ' {
			return string(body[:i]), body[i+1:]
		}
	}
	return "<unspecified>", body
}
