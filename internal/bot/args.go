package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errUsage = errors.New("usage: /addpoints <user id> <amount>")

// parseStartPayload extracts the referrer id from "/start <id>" (or
// "/start@bot <id>"). Other text and payloads that are not a positive integer
// are ignored.
func parseStartPayload(text string) (int64, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 || !isStartCommand(fields[0]) {
		return 0, false
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isStartCommand(word string) bool {
	command, _, _ := strings.Cut(word, "@")
	return command == "/start"
}

// parseAddPoints splits "/addpoints <user id> <amount>". The amount is
// returned raw; the ledger decides whether it is valid.
func parseAddPoints(text string) (int64, string, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return 0, "", errUsage
	}
	userID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: bad user id %q", errUsage, fields[1])
	}
	return userID, fields[2], nil
}

func referralLink(botUsername string, userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", botUsername, userID)
}
