package session

// Control bytes carried as the first byte of a message body. These are
// protocol constants fixed by the relay server's wire contract; renaming or
// renumbering them breaks interoperability.
const (
	ctrlIdentifyName  byte = 0x01 // body: 0x01 ‖ name
	ctrlSubAccept     byte = 0x02 // auth reply: subscription accepted; in Operating: re-identify request
	ctrlAckOrNotice   byte = 0x06 // 1 byte: single-recipient ack; 3 bytes: fanout ack (count follows)
	ctrlNotice        byte = 0x05 // body: 0x05 ‖ human-readable text
	ctrlIdentifyClass byte = 0x11 // body: 0x11 ‖ class
	ctrlNak           byte = 0x15 // sent by us on invalid signature
	ctrlCancel        byte = 0x18 // sent by us on ESCAPE
	ctrlSubFull       byte = 0x19 // auth reply: full/rejected; in Operating: subscription expired
	ctrlSubstitute    byte = 0x1A // sent by us on other decrypt failure
)

const (
	// authReplyLen is the exact size of a valid subscription reply datagram.
	authReplyLen = 25
	// minIngressLen is the strict lower bound for any other accepted
	// ingress datagram from the server address.
	minIngressLen = 24

	authPollCount    = 10
	authPollInterval = 100 // milliseconds
	authRetryWaitMs  = 5000
	nakWaitMs        = 2000
	operatingTickMs  = 1

	timestampSkewMs = 10000
)
