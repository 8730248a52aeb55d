// Package token mints the namespaced identifiers used across the service:
// txn_ for transaction ids, tkt_ for ticket codes. Uniqueness comes from the
// UUID; the prefix makes the id's kind obvious in logs and API payloads.
package token

import "github.com/google/uuid"

const (
	transactionPrefix = "txn_"
	ticketPrefix      = "tkt_"
)

func Transaction() string {
	return transactionPrefix + uuid.NewString()
}

func TicketCode() string {
	return ticketPrefix + uuid.NewString()
}
