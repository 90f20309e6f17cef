package main

import (
	"bufio"
	"net"
	"strings"
	"time"

	"quote-relay/src/logger"
)

// -----------------------------------------------------------------------------
// Scripted downstream clients for the harness. All use the crlf terminator.
// -----------------------------------------------------------------------------

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func send(conn net.Conn, message string) error {
	_, err := conn.Write([]byte(message + "\r\n"))
	return err
}

// login drives the handshake up to the granted/denied verdict. The banner
// spans three lines; the third one carries the login prompt.
func login(conn net.Conn, br *bufio.Reader, user, password string) (string, error) {
	for i := 0; i < 3; i++ {
		if _, err := readLine(br); err != nil {
			return "", err
		}
	}
	if err := send(conn, user); err != nil {
		return "", err
	}
	if _, err := readLine(br); err != nil { // password prompt
		return "", err
	}
	if err := send(conn, password); err != nil {
		return "", err
	}
	return readLine(br) // verdict
}

// -----------------------------------------------------------------------------

// runAuthenticatedClient logs in and counts quote lines for the duration.
func runAuthenticatedClient(addr, user, password string, duration time.Duration, log *logger.Logger) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Error("client: dial: %v", err)
		return
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	verdict, err := login(conn, br, user, password)
	if err != nil {
		log.Error("client: handshake: %v", err)
		return
	}
	log.Info("client: %s", verdict)

	conn.SetReadDeadline(time.Now().Add(duration))
	count := 0
	var sample string
	for {
		line, err := readLine(br)
		if err != nil {
			break
		}
		count++
		if sample == "" {
			sample = line
		}
	}
	log.Info("client: received %d quote lines (first: %q)", count, sample)
}

// -----------------------------------------------------------------------------

// runRejectedClient presents bad credentials and verifies the denial.
func runRejectedClient(addr, user, password string, log *logger.Logger) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Error("rejected client: dial: %v", err)
		return
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	verdict, err := login(conn, br, user, password)
	if err != nil {
		log.Error("rejected client: handshake: %v", err)
		return
	}
	log.Info("rejected client: %s", verdict)

	// The server closes after denial; any further read must fail.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := readLine(br); err == nil {
		log.Error("rejected client: still receiving after denial")
	}
}

// -----------------------------------------------------------------------------

// runPingClient logs in, sends a Ping and waits for the echo.
func runPingClient(addr, user, password string, log *logger.Logger) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Error("ping client: dial: %v", err)
		return
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	if _, err := login(conn, br, user, password); err != nil {
		log.Error("ping client: handshake: %v", err)
		return
	}

	if err := send(conn, "> Ping"); err != nil {
		log.Error("ping client: send: %v", err)
		return
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		line, err := readLine(br)
		if err != nil {
			log.Error("ping client: no echo: %v", err)
			return
		}
		if line == "> Ping" {
			log.Info("ping client: echo received")
			return
		}
	}
}
