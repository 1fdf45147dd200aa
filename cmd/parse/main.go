package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"twitchchat/internal/app/domain/irc"
	"twitchchat/internal/app/domain/message"
)

// Reads raw chat lines from stdin and prints each as the JSON the event feed
// would carry. Lines that fail to parse are reported on stderr.
func main() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	enc := json.NewEncoder(os.Stdout)

	failed := 0
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		src, err := irc.Parse(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", n, err)
			failed++
			continue
		}

		msg, err := message.ParseLenient(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v (kept as generic)\n", n, err)
			failed++
		}
		if err := enc.Encode(msg); err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", n, err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
