package sessiontoken_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	memclock "github.com/gatepass-registry/gatepass/internal/adapters/memory/clock"
	"github.com/gatepass-registry/gatepass/internal/platform/auth/sessiontoken"
	"github.com/gatepass-registry/gatepass/internal/platform/config"
)

func testConfig() config.DevServerConfig {
	return config.DevServerConfig{
		TokenSecret: "0123456789abcdef0123456789abcdef",
		TokenIssuer: "test-iss",
		TokenTTL:    time.Hour,
	}
}

func TestIssuer_MintVerify(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1700000000, 0))
	iss := sessiontoken.New(testConfig(), clk)

	raw, err := iss.Mint("user-1", "admin", "9876543210")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	claims, err := iss.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "admin" || claims.Mobile != "9876543210" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestIssuer_Verify_Expired(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1700000000, 0))
	iss := sessiontoken.New(testConfig(), clk)
	raw, err := iss.Mint("user-1", "guard", "")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	clk.Advance(2 * time.Hour)
	if _, err := iss.Verify(raw); !errors.Is(err, sessiontoken.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestIssuer_Verify_Rejects(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1700000000, 0))
	iss := sessiontoken.New(testConfig(), clk)

	otherCfg := testConfig()
	otherCfg.TokenSecret = "ffffffffffffffffffffffffffffffff"
	foreign, _ := sessiontoken.New(otherCfg, clk).Mint("user-1", "superadmin", "")

	otherIss := testConfig()
	otherIss.TokenIssuer = "elsewhere"
	wrongIssuer, _ := sessiontoken.New(otherIss, clk).Mint("user-1", "superadmin", "")

	noSub, _ := iss.Mint("", "guard", "")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1", "iss": "test-iss", "exp": clk.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, raw := range map[string]string{
		"garbage":      "not.a.jwt",
		"empty":        "",
		"wrong secret": foreign,
		"wrong issuer": wrongIssuer,
		"no subject":   noSub,
		"alg none":     none,
	} {
		if _, err := iss.Verify(raw); !errors.Is(err, sessiontoken.ErrUnauthorized) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}
