package commands

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <string>",
	Short: "Send a single lookup query",
	Long: `Send a single lookup query to the searchd server and print the verdict.

The query is matched against whole lines of the server's data file. The
server answers one of:

  STRING EXISTS
  STRING NOT FOUND
  ERROR: Payload too large. Max 1024 bytes allowed.
  ERROR: SSL required

Examples:
  # Plain TCP query
  searchctl query "10;0;1;26;0;8;3;0;"

  # Query a TLS-enabled server
  searchctl query --ssl --server search.internal:44445 "10;0;1;26;0;8;3;0;"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	verdict, err := sendQuery(serverAddr, args[0], useTLS, time.Duration(timeout)*time.Second)
	if err != nil {
		return err
	}

	fmt.Println(verdict)
	return nil
}

// sendQuery opens one connection, sends one query line, and returns the
// server's verdict with the trailing newline stripped.
func sendQuery(addr, query string, withTLS bool, dialTimeout time.Duration) (string, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}

	var conn net.Conn
	var err error
	if withTLS {
		// Deployments use self-signed certificates, so verification is
		// skipped. The --ssl flag still protects against plaintext snooping.
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
			InsecureSkipVerify: true,
		})
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(dialTimeout)); err != nil {
		return "", err
	}

	if _, err := conn.Write([]byte(query + "\n")); err != nil {
		return "", fmt.Errorf("failed to send query: %w", err)
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if len(resp) == 0 {
		return "", fmt.Errorf("server closed the connection without a response")
	}

	return strings.TrimSuffix(string(resp), "\n"), nil
}
