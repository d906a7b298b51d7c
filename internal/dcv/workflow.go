package dcv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/certops/dcvkit/internal/digicert"
	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/runlog"
	"github.com/certops/dcvkit/internal/sectigo"
)

// CA labels used in targets and reports.
const (
	CADigiCert = "digicert"
	CASectigo  = "sectigo"
)

// digicertCNAMETarget is where DigiCert CNAME DCV records must point.
const digicertCNAMETarget = "dcv.digicert.com"

// DigiCertAPI is the slice of the CertCentral client the workflow uses.
type DigiCertAPI interface {
	RequestToken(ctx context.Context, id int, method string) (*digicert.DCVToken, error)
	SetDCVMethod(ctx context.Context, id int, method string) error
	CheckDCV(ctx context.Context, id int) (string, error)
}

// SectigoAPI is the slice of the cert-manager client the workflow uses.
type SectigoAPI interface {
	StartCNAME(ctx context.Context, domain string) (*sectigo.CNAMEChallenge, error)
	SubmitCNAME(ctx context.Context, domain string) (string, error)
	StartTXT(ctx context.Context, domain string) (*sectigo.TXTChallenge, error)
	SubmitTXT(ctx context.Context, domain string) (string, error)
}

// RecordChecker confirms published records are visible in live DNS.
type RecordChecker interface {
	VerifyTXT(ctx context.Context, name, expected string) (bool, error)
	VerifyCNAME(ctx context.Context, name, expected string) (bool, error)
}

// Target is one domain to validate.
type Target struct {
	Domain string
	CA     string // CADigiCert or CASectigo
	ID     int    // CA-assigned domain id (DigiCert only)
	Method string // "TXT" or "CNAME"
}

// Result records what happened to one target.
type Result struct {
	Target
	RecordName string
	RecordType string
	Value      string
	Published  bool
	Verified   bool
	Status     string
	Err        error
}

// Workflow runs end-to-end DCV: obtain challenges, publish records,
// wait for propagation, then submit CA checks.
type Workflow struct {
	DigiCert  DigiCertAPI
	Sectigo   SectigoAPI
	Providers Registry
	Resolver  NSClassifier
	Checker   RecordChecker // optional, skips DNS verification when nil
	Log       *runlog.Logger

	TXTRecordTTL    int
	CNAMERecordTTL  int
	PropagationWait time.Duration

	// sleep is injectable so tests do not wait out the propagation
	// window.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWorkflow creates a workflow with real propagation waits.
func NewWorkflow(dc DigiCertAPI, sect SectigoAPI, providers Registry, resolver NSClassifier, log *runlog.Logger) *Workflow {
	if log == nil {
		log = runlog.Discard()
	}
	return &Workflow{
		DigiCert:        dc,
		Sectigo:         sect,
		Providers:       providers,
		Resolver:        resolver,
		Log:             log,
		TXTRecordTTL:    60,
		CNAMERecordTTL:  300,
		PropagationWait: 10 * time.Minute,
		sleep:           sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run validates all targets. Per-target failures are recorded in the
// results rather than aborting the batch; the propagation wait happens
// once, after every record is published.
func (w *Workflow) Run(ctx context.Context, targets []Target) ([]Result, error) {
	results := make([]Result, len(targets))

	published := 0
	for i, target := range targets {
		results[i] = w.publish(ctx, target)
		if results[i].Published {
			published++
		}
	}

	if published > 0 && w.PropagationWait > 0 {
		w.Log.Event("propagation-wait", "", map[string]interface{}{
			"records": published,
			"wait":    w.PropagationWait.String(),
		})
		if err := w.sleep(ctx, w.PropagationWait); err != nil {
			return results, err
		}
	}

	for i := range results {
		if results[i].Err != nil || !results[i].Published {
			continue
		}
		w.verify(ctx, &results[i])
		w.submit(ctx, &results[i])
	}
	return results, nil
}

// verify checks that the published record resolves before the CA is
// asked to look. A record that has not propagated yet is still
// submitted; the CA retries on its own schedule.
func (w *Workflow) verify(ctx context.Context, res *Result) {
	if w.Checker == nil {
		return
	}
	var ok bool
	var err error
	switch res.RecordType {
	case "CNAME":
		ok, err = w.Checker.VerifyCNAME(ctx, res.RecordName, res.Value)
	default:
		ok, err = w.Checker.VerifyTXT(ctx, res.RecordName, res.Value)
	}
	if err != nil {
		w.Log.Error("verify", err)
		return
	}
	res.Verified = ok
	w.Log.Event("verify", res.Domain, map[string]interface{}{
		"record_name": res.RecordName,
		"record_type": res.RecordType,
		"resolved":    ok,
	})
}

// publish obtains the challenge for one target and writes its record.
func (w *Workflow) publish(ctx context.Context, target Target) Result {
	res := Result{Target: target}

	rec, err := w.challenge(ctx, target)
	if err != nil {
		res.Err = err
		w.Log.Error("challenge", err)
		return res
	}
	res.RecordName = rec.Name
	res.RecordType = rec.Type
	res.Value = rec.Value

	provider, err := w.Providers.For(ctx, w.Resolver, target.Domain)
	if err != nil {
		res.Err = err
		return res
	}

	changed, err := provider.EnsureRecord(ctx, rec)
	if err != nil {
		res.Err = errors.WrapDomain(errors.ErrCodeDNS, target.Domain, err)
		return res
	}
	res.Published = true
	w.Log.Event("publish", target.Domain, map[string]interface{}{
		"provider":    provider.Name(),
		"record_name": rec.Name,
		"record_type": rec.Type,
		"changed":     changed,
	})
	return res
}

// challenge asks the CA for the record this target must publish.
func (w *Workflow) challenge(ctx context.Context, target Target) (Record, error) {
	switch target.CA {
	case CADigiCert:
		return w.digicertChallenge(ctx, target)
	case CASectigo:
		return w.sectigoChallenge(ctx, target)
	default:
		return Record{}, errors.Validation(fmt.Sprintf("unknown CA %q", target.CA))
	}
}

func (w *Workflow) digicertChallenge(ctx context.Context, target Target) (Record, error) {
	switch target.Method {
	case "TXT":
		token, err := w.DigiCert.RequestToken(ctx, target.ID, digicert.MethodDNSTXT)
		if err != nil {
			return Record{}, err
		}
		return Record{
			Name:  target.Domain,
			Type:  "TXT",
			Value: token.Token,
			TTL:   w.TXTRecordTTL,
		}, nil
	case "CNAME":
		token, err := w.DigiCert.RequestToken(ctx, target.ID, digicert.MethodDNSCNAME)
		if err != nil {
			return Record{}, err
		}
		return Record{
			Name:  token.Token + "." + target.Domain,
			Type:  "CNAME",
			Value: digicertCNAMETarget,
			TTL:   w.CNAMERecordTTL,
		}, nil
	default:
		return Record{}, errors.Validation(
			fmt.Sprintf("domain %s: unsupported DigiCert method %q", target.Domain, target.Method))
	}
}

func (w *Workflow) sectigoChallenge(ctx context.Context, target Target) (Record, error) {
	switch target.Method {
	case "CNAME":
		ch, err := w.Sectigo.StartCNAME(ctx, target.Domain)
		if err != nil {
			return Record{}, err
		}
		return Record{
			Name:  strings.TrimSuffix(ch.Host, "."),
			Type:  "CNAME",
			Value: normalizeTarget(ch.Point),
			TTL:   w.CNAMERecordTTL,
		}, nil
	case "TXT":
		ch, err := w.Sectigo.StartTXT(ctx, target.Domain)
		if err != nil {
			return Record{}, err
		}
		name := strings.TrimSuffix(ch.Host, ".")
		if name == "" || name == "@" {
			name = dnsutil.ValidationName(target.Domain)
		}
		return Record{
			Name:  name,
			Type:  "TXT",
			Value: ch.Value,
			TTL:   w.TXTRecordTTL,
		}, nil
	default:
		return Record{}, errors.Validation(
			fmt.Sprintf("domain %s: unsupported Sectigo method %q", target.Domain, target.Method))
	}
}

// submit asks the CA to verify the published record.
func (w *Workflow) submit(ctx context.Context, res *Result) {
	var status string
	var err error
	switch res.CA {
	case CADigiCert:
		status, err = w.DigiCert.CheckDCV(ctx, res.ID)
	case CASectigo:
		if res.Method == "CNAME" {
			status, err = w.Sectigo.SubmitCNAME(ctx, res.Domain)
		} else {
			status, err = w.Sectigo.SubmitTXT(ctx, res.Domain)
		}
	}
	if err != nil {
		res.Err = err
		w.Log.Error("submit", err)
		return
	}
	res.Status = status
	w.Log.Event("submit", res.Domain, map[string]interface{}{
		"ca":     res.CA,
		"status": status,
	})
}

// Cleanup removes the validation records a run published. Records that
// are already gone are skipped silently.
func (w *Workflow) Cleanup(ctx context.Context, results []Result) error {
	var firstErr error
	for _, res := range results {
		if !res.Published {
			continue
		}
		provider, err := w.Providers.For(ctx, w.Resolver, res.Domain)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := provider.DeleteRecord(ctx, res.RecordName, res.RecordType); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			w.Log.Error("cleanup", err)
			continue
		}
		w.Log.Event("cleanup", res.Domain, map[string]interface{}{
			"record_name": res.RecordName,
			"record_type": res.RecordType,
		})
	}
	return firstErr
}

// ReconcileMethods updates the DigiCert DCV method for every target
// whose current method differs from desired. Returns the targets that
// were changed.
func (w *Workflow) ReconcileMethods(ctx context.Context, targets []Target, current map[int]string, desired string) ([]Target, error) {
	var changed []Target
	for _, target := range targets {
		if target.CA != CADigiCert {
			continue
		}
		if current[target.ID] == desired {
			continue
		}
		if err := w.DigiCert.SetDCVMethod(ctx, target.ID, desired); err != nil {
			return changed, errors.WrapDomain(errors.ErrCodeVendor, target.Domain, err)
		}
		w.Log.Event("set-method", target.Domain, map[string]interface{}{
			"from": current[target.ID],
			"to":   desired,
		})
		changed = append(changed, target)
	}
	return changed, nil
}
