package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrInvalidLaunch is returned for any launch payload that fails
	// verification; the caller is not told which check failed
	ErrInvalidLaunch = errors.New("invalid launch payload")
)

// launchWindow bounds how stale a signed launch payload may be
const launchWindow = 5 * time.Minute

// LaunchRequest is the payload the learning platform posts when a learner
// opens the simulation. The platform signs it with the shared secret.
type LaunchRequest struct {
	ConsumerKey string `json:"consumerKey" form:"consumer_key"`
	UserID      string `json:"userId" form:"user_id"`
	Email       string `json:"email" form:"email"`
	DisplayName string `json:"displayName" form:"display_name"`
	Institution string `json:"institution" form:"institution"`
	CourseID    string `json:"courseId" form:"course_id"`
	CourseName  string `json:"courseName" form:"course_name"`
	Timestamp   int64  `json:"timestamp" form:"timestamp"`
	Signature   string `json:"signature" form:"signature"`
}

// LaunchVerifier checks launch payload signatures against the shared
// consumer secret
type LaunchVerifier struct {
	consumerKey string
	secret      []byte
	now         func() time.Time
}

func NewLaunchVerifier(consumerKey, secret string) *LaunchVerifier {
	return &LaunchVerifier{consumerKey: consumerKey, secret: []byte(secret), now: time.Now}
}

// Verify checks the consumer key, freshness and signature of req
func (v *LaunchVerifier) Verify(req *LaunchRequest) error {
	if req.ConsumerKey != v.consumerKey {
		return ErrInvalidLaunch
	}

	issued := time.Unix(req.Timestamp, 0)
	age := v.now().Sub(issued)
	if age > launchWindow || age < -launchWindow {
		return ErrInvalidLaunch
	}

	expected := signLaunch(v.secret, req)
	given, err := hex.DecodeString(req.Signature)
	if err != nil {
		return ErrInvalidLaunch
	}
	if !hmac.Equal(expected, given) {
		return ErrInvalidLaunch
	}

	return nil
}

// signLaunch computes the HMAC over the canonical field order. The platform
// side builds the identical string.
func signLaunch(secret []byte, req *LaunchRequest) []byte {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s\n%s\n%s\n%s\n%s\n%s\n%s\n%s",
		req.ConsumerKey,
		req.UserID,
		req.Email,
		req.DisplayName,
		req.Institution,
		req.CourseID,
		req.CourseName,
		strconv.FormatInt(req.Timestamp, 10),
	)
	return mac.Sum(nil)
}

// SignLaunch fills in the signature for req. Exported for tests and for
// the demo seeding tool; production payloads are signed by the platform.
func SignLaunch(secret string, req *LaunchRequest) {
	req.Signature = hex.EncodeToString(signLaunch([]byte(secret), req))
}
