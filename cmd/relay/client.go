package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZentaChain/chatrelay/pkg/client"
	"github.com/ZentaChain/chatrelay/pkg/crypto"
	"github.com/ZentaChain/chatrelay/pkg/protocol"
)

func clientCmd() *cobra.Command {
	var (
		server string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Interactive client; send lines as '@dst message'",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runClient(ctx, server, name, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "127.0.0.1:8081", "relay address")
	cmd.Flags().StringVarP(&name, "name", "n", "", "username to claim after connecting")
	return cmd
}

func runClient(ctx context.Context, server, name string, in io.Reader, out io.Writer) error {
	key, err := crypto.GenerateRSAKeyPair(crypto.DefaultRSABits)
	if err != nil {
		return err
	}

	c, err := client.DialRetry(ctx, server, key, func(err error, wait time.Duration) {
		fmt.Fprintf(out, "🔄 Connecting to %s failed (%v), retrying in %v...\n", server, err, wait)
	})
	if err != nil {
		return err
	}
	defer c.Close()
	fmt.Fprintf(out, "✅ Connected as %s\n", c.ID())

	if name != "" {
		resp, err := c.ClaimName(ctx, name)
		if err != nil {
			return err
		}
		if resp.Status != protocol.NameSuccess {
			fmt.Fprintf(out, "⚠️  Could not claim %q: %s\n", name, resp.Reason)
		} else {
			fmt.Fprintf(out, "✅ Claimed %q\n", name)
		}
	}

	recvErr := make(chan error, 1)
	go func() {
		for {
			p, err := c.Receive(ctx)
			if err != nil {
				recvErr <- err
				return
			}
			printPacket(out, p)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-recvErr:
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			dst, msg, ok := parseLine(line)
			if !ok {
				fmt.Fprintln(out, "usage: @dst message")
				continue
			}
			if err := c.SendMessage(dst, []byte(msg)); err != nil {
				return err
			}
		}
	}
}

// parseLine splits "@dst message" into its parts
func parseLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "@") {
		return "", "", false
	}
	dst, msg, found := strings.Cut(line[1:], " ")
	if !found || dst == "" {
		return "", "", false
	}
	return dst, msg, true
}

func printPacket(out io.Writer, p protocol.Packet) {
	switch pkt := p.(type) {
	case *protocol.Message:
		fmt.Fprintf(out, "[%s] %s\n", pkt.Sender, pkt.Content)
	case *protocol.Handshake:
		if pkt.Status == protocol.HandshakeNotFound {
			fmt.Fprintf(out, "⚠️  %s not found\n", pkt.Dst)
			return
		}
		fmt.Fprintf(out, "handshake %s from %s (%s)\n", pkt.Status, pkt.Src.ID, pkt.Src.Name)
	case *protocol.NameResponse:
		fmt.Fprintf(out, "name response: %d %s\n", pkt.Status, pkt.Reason)
	default:
		fmt.Fprintf(out, "%s\n", protocol.TypeName(p.Type()))
	}
}
