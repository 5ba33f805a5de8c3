package utils

/**
 * Key formats for the Redis (key, value) pairs, so every caller builds them the
 * same way.
 */

import "fmt"

func FormatPartyKey(partyId string) string {
	return fmt.Sprintf("party:%s", partyId)
}

func FormatMatchKey(matchId string) string {
	return fmt.Sprintf("match:%s", matchId)
}
