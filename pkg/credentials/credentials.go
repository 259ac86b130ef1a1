// Package credentials verifies passcodes of admin and teams.
package credentials

import (
	"crypto/subtle"
	"fmt"

	"github.com/opst/playground/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

// Hasher makes one-way hashes of team passcodes.
type Hasher struct {
	// bcrypt cost factor.
	Cost int
}

func (h Hasher) Hash(passcode string) (string, error) {
	if h.Cost < bcrypt.MinCost || bcrypt.MaxCost < h.Cost {
		return "", fmt.Errorf("bcrypt cost out of range: %d", h.Cost)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(passcode), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Recorder is the part of metrics.Recorder which Verifier reports to.
type Recorder interface {
	Login(metrics.Caller)
	Failure(metrics.Caller)
}

// Verifier checks passcodes.
//
// Each Verify* call reports exactly one outcome to the Recorder.
type Verifier struct {
	adminName   string
	adminSecret string
	rec         Recorder
}

func NewVerifier(adminName, adminSecret string, rec Recorder) *Verifier {
	return &Verifier{adminName: adminName, adminSecret: adminSecret, rec: rec}
}

// IsAdmin tells whether team is the reserved admin identity.
func (v *Verifier) IsAdmin(team string) bool {
	return team == v.adminName
}

// VerifyAdmin compares team and passcode with the provisioned admin identity and secret.
func (v *Verifier) VerifyAdmin(team, passcode string) bool {
	nameOk := subtle.ConstantTimeCompare([]byte(team), []byte(v.adminName))
	secretOk := subtle.ConstantTimeCompare([]byte(passcode), []byte(v.adminSecret))
	if nameOk&secretOk == 1 {
		v.rec.Login(metrics.Admin)
		return true
	}
	v.rec.Failure(metrics.Admin)
	return false
}

// VerifyTeam compares passcode with the bcrypt hash stored with the team's instance.
func (v *Verifier) VerifyTeam(passcode, storedHash string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(passcode)); err != nil {
		v.rec.Failure(metrics.User)
		return false
	}
	v.rec.Login(metrics.User)
	return true
}
