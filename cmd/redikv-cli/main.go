// Command redikv-cli is a minimal interactive client for redikv-server:
// it reads a line, writes it verbatim over the wire, and prints whatever
// RESP reply comes back.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	var host string
	var port int

	root := &cobra.Command{
		Use:   "redikv-cli",
		Short: "Interactive client for a redikv node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl(host, port)
		},
	}
	root.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	root.Flags().IntVar(&port, "port", 6379, "server port")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func repl(host string, port int) error {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	serverReader := bufio.NewReader(conn)
	greeting, err := serverReader.ReadString('\n')
	if err == nil {
		fmt.Print(greeting)
	}

	prompt := fmt.Sprintf("%s:%d> ", host, port)
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print(prompt)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print(prompt)
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return nil
		}

		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			return fmt.Errorf("write: %w", err)
		}

		reply, err := readReply(serverReader)
		if err != nil {
			return fmt.Errorf("read reply: %w", err)
		}
		fmt.Print(reply)
		fmt.Print(prompt)
	}
	return scanner.Err()
}

// readReply reads one RESP reply: a single line for +/-/: replies, or a
// bulk string's two lines, or an array header plus each of its elements.
func readReply(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) == 0 {
		return line, nil
	}
	switch line[0] {
	case '+', '-', ':':
		return line, nil
	case '$':
		if strings.HasPrefix(line, "$-1") {
			return line, nil
		}
		body, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		return line + body, nil
	case '*':
		count := 0
		fmt.Sscanf(line, "*%d", &count)
		out := line
		for i := 0; i < count; i++ {
			elem, err := readReply(r)
			if err != nil {
				return "", err
			}
			out += elem
		}
		return out, nil
	default:
		return line, nil
	}
}
