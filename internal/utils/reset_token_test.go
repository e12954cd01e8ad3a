package utils

import (
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestResetTokenValidWithinWindow(t *testing.T) {
    issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
    gen := ResetTokens{Secret: testSecret, Timeout: time.Hour, Now: fixedClock(issued)}
    tok := gen.Make(7, "hash-a")

    gen.Now = fixedClock(issued.Add(59 * time.Minute))
    assert.True(t, gen.Check(7, "hash-a", tok))

    gen.Now = fixedClock(issued.Add(61 * time.Minute))
    assert.False(t, gen.Check(7, "hash-a", tok), "expired")
}

func TestResetTokenSelfInvalidatesOnPasswordChange(t *testing.T) {
    gen := ResetTokens{Secret: testSecret, Timeout: time.Hour}
    tok := gen.Make(7, "hash-before")

    assert.True(t, gen.Check(7, "hash-before", tok))
    assert.False(t, gen.Check(7, "hash-after", tok))
}

func TestResetTokenRejectsTampering(t *testing.T) {
    gen := ResetTokens{Secret: testSecret, Timeout: time.Hour}
    tok := gen.Make(7, "hash")
    ts, sig, _ := strings.Cut(tok, "-")

    assert.False(t, gen.Check(8, "hash", tok), "other account")
    assert.False(t, gen.Check(7, "hash", ts+"-"+strings.Repeat("0", len(sig))))
    assert.False(t, gen.Check(7, "hash", "zzzz-"+sig), "moved timestamp")
    assert.False(t, gen.Check(7, "hash", sig))
    assert.False(t, gen.Check(7, "hash", ""))
    assert.False(t, ResetTokens{Secret: "other", Timeout: time.Hour}.Check(7, "hash", tok))
}

func TestResetTokenRejectsFutureStamp(t *testing.T) {
    now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
    future := ResetTokens{Secret: testSecret, Timeout: time.Hour, Now: fixedClock(now.Add(2 * time.Hour))}
    tok := future.Make(7, "hash")

    gen := ResetTokens{Secret: testSecret, Timeout: time.Hour, Now: fixedClock(now)}
    assert.False(t, gen.Check(7, "hash", tok))
}

func TestUIDRoundTrip(t *testing.T) {
    uid := EncodeUID(12345)
    assert.NotContains(t, uid, "12345")

    id, err := DecodeUID(uid)
    require.NoError(t, err)
    assert.EqualValues(t, 12345, id)

    _, err = DecodeUID("!!!")
    assert.Error(t, err)
    _, err = DecodeUID(EncodeUID(0))
    assert.Error(t, err)
}
