package testing

import (
	"strings"

	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// FormatLogs joins the program log lines of a result for failure messages.
func FormatLogs(result tx.ApplyResult) string {
	if len(result.Logs) == 0 {
		return result.Message
	}
	return result.Message + "\n" + strings.Join(result.Logs, "\n")
}
