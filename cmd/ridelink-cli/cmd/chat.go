package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tmoran/ridelink/internal/chat"
	"github.com/tmoran/ridelink/internal/chat/client"
)

var (
	chatServerURL string
	chatTourID    string
	chatUserID    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Join a tour's chat room from the terminal",
	Long: `Connects to the RideLink chat endpoint, joins the given tour as the
given user, and relays messages between the room and your terminal.
Lines typed on stdin are sent to the room; incoming messages are printed.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "server", "ws://localhost:5000/ws", "chat endpoint URL")
	chatCmd.Flags().StringVar(&chatTourID, "tour", "", "tour id to join (required)")
	chatCmd.Flags().StringVar(&chatUserID, "user", "", "user id to join as (required)")
	chatCmd.MarkFlagRequired("tour")
	chatCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	transport := client.New(chatServerURL)
	defer transport.Close()

	caser := cases.Title(language.English)

	unsubscribe := transport.Subscribe(func(frame chat.ServerFrame) {
		switch f := frame.(type) {
		case chat.JoinedChat:
			fmt.Printf("* joined chat for tour %s\n", f.TourID)
		case chat.NewMessage:
			author := f.Message.UserID
			if f.Message.User != nil {
				author = displayName(caser, f.Message.User.Username)
			}
			fmt.Printf("[%s] %s\n", author, f.Message.Message)
		case chat.ErrorFrame:
			fmt.Fprintf(os.Stderr, "! %s\n", f.Message)
		}
	})
	defer unsubscribe()

	unobserve := transport.OnConnectivityChange(func(connected bool) {
		if connected {
			transport.Send(chat.JoinTourChat{TourID: chatTourID, UserID: chatUserID})
		} else {
			fmt.Fprintln(os.Stderr, "* disconnected")
		}
	})
	defer unobserve()

	// The transport may have connected before the observer registered.
	if transport.Connected() {
		transport.Send(chat.JoinTourChat{TourID: chatTourID, UserID: chatUserID})
	}

	// Forward stdin lines to the room until EOF or interrupt.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			transport.Send(chat.SendMessage{Message: line})
		case <-quit:
			return nil
		}
	}
}

// displayName turns a username like "alex_rider" into "Alex Rider".
func displayName(caser cases.Caser, username string) string {
	return caser.String(strings.ReplaceAll(username, "_", " "))
}
