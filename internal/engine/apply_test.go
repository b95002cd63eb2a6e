package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/schema"
)

var (
	fieldAgent = record.ActorContext{
		UserID: "agent-1",
		Role:   "FIELD_AGENT",
		Scopes: []record.Scope{record.ScopeNotify, record.ScopeDeclare},
	}
	registrationAgent = record.ActorContext{
		UserID: "ra-1",
		Role:   "REGISTRATION_AGENT",
		Scopes: []record.Scope{record.ScopeDeclare, record.ScopeValidate},
	}
	registrar = record.ActorContext{
		UserID: "registrar-1",
		Role:   "LOCAL_REGISTRAR",
		Scopes: []record.Scope{
			record.ScopeDeclare, record.ScopeValidate,
			record.ScopeRegister, record.ScopeCertify,
		},
	}
	admin = record.ActorContext{
		UserID: "admin-1",
		Role:   "NATIONAL_ADMIN",
		Scopes: []record.Scope{record.ScopeRegisterElevated, record.ScopeCertify},
	}
)

var testBase = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fixedNow returns a clock that advances one second per call, starting at
// testBase. Deterministic timestamps keep action IDs and golden output
// stable across runs.
func fixedNow() func() time.Time {
	n := 0
	return func() time.Time {
		t := testBase.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	reg, err := schema.Load()
	require.NoError(t, err)
	all := append([]Option{WithNow(fixedNow())}, opts...)
	return New(reg, all...)
}

func birthDeclaration(dob string) record.Declaration {
	return record.Declaration{
		"child.firstname": record.FieldString("Ada"),
		"child.surname":   record.FieldString("Okafor"),
		"child.gender":    record.FieldString("female"),
		"child.dob":       record.FieldString(dob),
		"mother.nid":      record.FieldString("1988-445-221"),
	}
}

// apply submits an action with the base version taken from the current
// snapshot, the way a well-behaved client does.
func apply(t *testing.T, e *Engine, rec record.Record, in ActionInput, actor record.ActorContext) record.Record {
	t.Helper()
	in.BaseVersion = rec.Version()
	out, err := e.Apply(rec, in, actor)
	require.NoError(t, err, "action %s", in.Type)
	return out
}

func createBirth(t *testing.T, e *Engine, dob string) record.Record {
	t.Helper()
	return apply(t, e, record.Record{}, ActionInput{
		Type:          record.ActionCreate,
		TransactionID: "txn-create",
		EventType:     record.EventBirth,
		Declaration:   birthDeclaration(dob),
	}, fieldAgent)
}

func TestHappyPathBirthRegistration(t *testing.T) {
	e := newTestEngine(t)

	rec := createBirth(t, e, "2024-02-20")
	assert.Equal(t, record.StatusInProgress, rec.Status)
	assert.NotEmpty(t, rec.ID)
	assert.Regexp(t, `^B[2-9A-HJKMNP-Z]{7}$`, rec.TrackingID)
	assert.Equal(t, 1, rec.Version())

	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionDeclare,
		TransactionID: "txn-declare",
		Declaration: record.Declaration{
			"informant.relation": record.FieldString("MOTHER"),
		},
	}, fieldAgent)
	assert.Equal(t, record.StatusDeclared, rec.Status)

	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionValidate,
		TransactionID: "txn-validate",
	}, registrationAgent)
	assert.Equal(t, record.StatusValidated, rec.Status)

	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionRegister,
		TransactionID: "txn-register",
	}, registrar)
	assert.Equal(t, record.StatusRegistered, rec.Status)

	require.Equal(t, 4, rec.Version())
	types := make([]record.ActionType, 0, 4)
	for _, act := range rec.History {
		types = append(types, act.Type)
	}
	assert.Equal(t, []record.ActionType{
		record.ActionCreate, record.ActionDeclare,
		record.ActionValidate, record.ActionRegister,
	}, types)

	// Declared patch merged over the created declaration.
	assert.Equal(t, record.FieldString("MOTHER"), rec.Declaration["informant.relation"])
	assert.Equal(t, record.FieldString("Ada"), rec.Declaration["child.firstname"])
}

func TestSeqStrictlyIncreases(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t2"}, fieldAgent)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionValidate, TransactionID: "t3"}, registrar)

	var last int64
	for _, act := range rec.History {
		assert.Greater(t, act.Seq, last)
		last = act.Seq
	}
}

func TestRetriedCreateIsNoOp(t *testing.T) {
	e := newTestEngine(t)

	in := ActionInput{
		Type:          record.ActionCreate,
		TransactionID: "txn-create",
		EventType:     record.EventBirth,
		EventID:       "evt-fixed",
		Declaration:   birthDeclaration("2024-02-20"),
	}
	rec, err := e.Apply(record.Record{}, in, fieldAgent)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Version())

	// The retry is evaluated against the record it created and must see
	// the same success, not "record already exists".
	again, err := e.Apply(rec, in, fieldAgent)
	require.NoError(t, err)
	assert.Equal(t, rec.Version(), again.Version())
	assert.Equal(t, rec.History[0].ID, again.History[0].ID)
	assert.Equal(t, record.StatusInProgress, again.Status)
}

func TestIdempotentTransactionIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "txn-d"}, fieldAgent)

	again, err := e.Apply(rec, ActionInput{
		Type:          record.ActionDeclare,
		TransactionID: "txn-d",
		BaseVersion:   rec.Version(),
	}, fieldAgent)
	require.NoError(t, err)
	assert.Equal(t, rec.Version(), again.Version())
	assert.Equal(t, rec.Status, again.Status)
}

func TestConcurrentModificationRejected(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "txn-d"}, fieldAgent)

	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionValidate,
		TransactionID: "txn-v",
		BaseVersion:   rec.Version() - 1, // stale snapshot
	}, registrar)
	require.Error(t, err)
	assert.True(t, IsConcurrentModification(err))
}

func TestInvalidTransitionRejected(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")

	// Register straight from IN_PROGRESS.
	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionRegister,
		TransactionID: "txn-r",
		BaseVersion:   rec.Version(),
	}, registrar)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
}

func TestInsufficientScopeRejected(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t2"}, fieldAgent)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionValidate, TransactionID: "t3"}, registrationAgent)

	// A registration agent cannot register.
	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionRegister,
		TransactionID: "t4",
		BaseVersion:   rec.Version(),
	}, registrationAgent)
	require.Error(t, err)
	assert.True(t, IsInsufficientScope(err))
}

func TestElevatedScopeImpliesRegister(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t2"}, fieldAgent)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionValidate, TransactionID: "t3"}, registrar)

	out, err := e.Apply(rec, ActionInput{
		Type:          record.ActionRegister,
		TransactionID: "t4",
		BaseVersion:   rec.Version(),
	}, admin)
	require.NoError(t, err)
	assert.Equal(t, record.StatusRegistered, out.Status)
}

func TestUnknownDeclarationFieldRejected(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Apply(record.Record{}, ActionInput{
		Type:          record.ActionCreate,
		TransactionID: "txn-c",
		EventType:     record.EventBirth,
		Declaration: record.Declaration{
			"child.astrologicalSign": record.FieldString("leo"),
		},
	}, fieldAgent)
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Details, "child.astrologicalSign")
}

func TestWrongFieldKindRejected(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Apply(record.Record{}, ActionInput{
		Type:          record.ActionCreate,
		TransactionID: "txn-c",
		EventType:     record.EventBirth,
		Declaration: record.Declaration{
			"child.weightAtBirth": record.FieldString("3200"),
		},
	}, fieldAgent)
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))
}

func TestAssignmentGatesMutatingActions(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")

	rec = apply(t, e, rec, ActionInput{Type: record.ActionAssign, TransactionID: "t-assign"}, registrationAgent)
	assert.Equal(t, registrationAgent.UserID, rec.Assignee)

	// Someone else cannot mutate while the record is held.
	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionDeclare,
		TransactionID: "t-declare",
		BaseVersion:   rec.Version(),
	}, fieldAgent)
	require.Error(t, err)
	assert.True(t, IsNotAssigned(err))

	// The assignee can.
	out := apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t-declare"}, registrationAgent)
	assert.Equal(t, record.StatusDeclared, out.Status)
}

func TestAssignRejectedWhenAlreadyAssigned(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionAssign, TransactionID: "t1"}, registrationAgent)

	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionAssign,
		TransactionID: "t2",
		BaseVersion:   rec.Version(),
	}, fieldAgent)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
}

func TestUnassignRequiresSelfOrElevated(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionAssign, TransactionID: "t1"}, registrationAgent)

	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionUnassign,
		TransactionID: "t2",
		BaseVersion:   rec.Version(),
	}, fieldAgent)
	require.Error(t, err)
	assert.True(t, IsInsufficientScope(err))

	// An elevated actor can force-release someone else's hold.
	out := apply(t, e, rec, ActionInput{Type: record.ActionUnassign, TransactionID: "t3"}, admin)
	assert.Empty(t, out.Assignee)
}

func TestLateRegistrationBlocksRegister(t *testing.T) {
	e := newTestEngine(t)

	rec := createBirth(t, e, "2020-01-15") // years before testBase
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t2"}, fieldAgent)
	assert.True(t, rec.HasFlag(record.FlagRequiresLateApproval))

	rec = apply(t, e, rec, ActionInput{Type: record.ActionValidate, TransactionID: "t3"}, registrar)
	assert.True(t, rec.HasFlag(record.FlagRequiresLateApproval))

	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionRegister,
		TransactionID: "t4",
		BaseVersion:   rec.Version(),
	}, registrar)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	// Approval without notes is rejected.
	_, err = e.Apply(rec, ActionInput{
		Type:          record.ActionApprove,
		TransactionID: "t5",
		BaseVersion:   rec.Version(),
	}, registrar)
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))

	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionApprove,
		TransactionID: "t6",
		Metadata: record.Metadata{
			"notes": record.FieldString("delayed homebirth, confirmed with chief"),
		},
	}, registrar)
	assert.False(t, rec.HasFlag(record.FlagRequiresLateApproval))

	rec = apply(t, e, rec, ActionInput{Type: record.ActionRegister, TransactionID: "t7"}, registrar)
	assert.Equal(t, record.StatusRegistered, rec.Status)
}

func TestLateRegistrationDisabledByZeroCutoff(t *testing.T) {
	e := newTestEngine(t, WithLateRegistrationCutoff(0))
	rec := createBirth(t, e, "2020-01-15")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t2"}, fieldAgent)
	assert.False(t, rec.HasFlag(record.FlagRequiresLateApproval))
}

func registeredBirth(t *testing.T, e *Engine) record.Record {
	t.Helper()
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t-d"}, fieldAgent)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionValidate, TransactionID: "t-v"}, registrar)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionRegister, TransactionID: "t-r"}, registrar)
	return rec
}

func TestArchiveRegisteredRecord(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	rec = apply(t, e, rec, ActionInput{Type: record.ActionArchive, TransactionID: "t-ar"}, registrar)
	assert.Equal(t, record.StatusArchived, rec.Status)
}

func TestCertifierCanRequestCorrection(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	certifier := record.ActorContext{
		UserID: "certifier-1",
		Role:   "CERTIFICATION_CLERK",
		Scopes: []record.Scope{record.ScopeCertify},
	}
	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionCorrectRequest,
		TransactionID: "t-cr",
		Declaration: record.Declaration{
			"child.surname": record.FieldString("Okafor-Eze"),
		},
	}, certifier)
	assert.True(t, rec.HasFlag(record.FlagCorrectionRequested))

	// Approving still needs register scope.
	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionCorrectApprove,
		TransactionID: "t-ca",
		BaseVersion:   rec.Version(),
	}, certifier)
	require.Error(t, err)
	assert.True(t, IsInsufficientScope(err))
}

func TestCorrectionRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionCorrectRequest,
		TransactionID: "t-cr",
		Declaration: record.Declaration{
			"child.firstname": record.FieldString("Adaeze"),
		},
	}, registrationAgent)
	assert.True(t, rec.HasFlag(record.FlagCorrectionRequested))
	// Pending, not yet applied.
	assert.Equal(t, record.FieldString("Ada"), rec.Declaration["child.firstname"])
	assert.Equal(t, record.StatusRegistered, rec.Status)

	// No second request while one is pending.
	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionCorrectRequest,
		TransactionID: "t-cr2",
		Declaration:   record.Declaration{"child.surname": record.FieldString("X")},
		BaseVersion:   rec.Version(),
	}, registrationAgent)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	rec = apply(t, e, rec, ActionInput{Type: record.ActionCorrectApprove, TransactionID: "t-ca"}, registrar)
	assert.False(t, rec.HasFlag(record.FlagCorrectionRequested))
	assert.Equal(t, record.FieldString("Adaeze"), rec.Declaration["child.firstname"])
}

func TestCorrectionRejectionLeavesDeclarationUntouched(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	before, err := record.MarshalCanonical(rec.Declaration)
	require.NoError(t, err)

	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionCorrectRequest,
		TransactionID: "t-cr",
		Declaration:   record.Declaration{"child.surname": record.FieldString("Changed")},
	}, registrationAgent)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionCorrectReject, TransactionID: "t-crj"}, registrar)

	after, err := record.MarshalCanonical(rec.Declaration)
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected correction must leave declaration byte-identical")
	assert.False(t, rec.HasFlag(record.FlagCorrectionRequested))
}

func TestCorrectionRequestRequiresPatch(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionCorrectRequest,
		TransactionID: "t-cr",
		BaseVersion:   rec.Version(),
	}, registrar)
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))
}

func TestPrintAndIssueFlow(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	rec = apply(t, e, rec, ActionInput{Type: record.ActionPrint, TransactionID: "t-p"}, registrar)
	assert.Equal(t, record.StatusCertified, rec.Status)
	assert.True(t, rec.HasFlag(record.FlagPrinted))

	rec = apply(t, e, rec, ActionInput{Type: record.ActionIssue, TransactionID: "t-i"}, registrar)
	assert.Equal(t, record.StatusIssued, rec.Status)
	assert.True(t, rec.HasFlag(record.FlagPrinted))
}

func TestRevokeAndReinstate(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionPrint, TransactionID: "t-p"}, registrar)

	// Only elevated actors may revoke, and a reason is mandatory.
	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionRevoke,
		TransactionID: "t-rv",
		BaseVersion:   rec.Version(),
	}, registrar)
	require.Error(t, err)
	assert.True(t, IsInsufficientScope(err))

	_, err = e.Apply(rec, ActionInput{
		Type:          record.ActionRevoke,
		TransactionID: "t-rv",
		BaseVersion:   rec.Version(),
	}, admin)
	require.Error(t, err)
	assert.True(t, IsValidationFailed(err))

	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionRevoke,
		TransactionID: "t-rv2",
		Metadata:      record.Metadata{"reason": record.FieldString("court order 44/2024")},
	}, admin)
	assert.Equal(t, record.StatusRevoked, rec.Status)
	assert.False(t, rec.HasFlag(record.FlagPrinted))

	rec = apply(t, e, rec, ActionInput{Type: record.ActionReinstate, TransactionID: "t-ri"}, admin)
	assert.Equal(t, record.StatusCertified, rec.Status, "reinstate restores the pre-revocation status")
	assert.True(t, rec.HasFlag(record.FlagPrinted))
}

func TestDuplicateFlagLifecycle(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t-d"}, fieldAgent)

	_, err := e.Apply(rec, ActionInput{
		Type:          record.ActionMarkDuplicate,
		TransactionID: "t-md0",
		BaseVersion:   rec.Version(),
	}, registrationAgent)
	require.Error(t, err, "duplicateOf reference is mandatory")
	assert.True(t, IsValidationFailed(err))

	rec = apply(t, e, rec, ActionInput{
		Type:          record.ActionMarkDuplicate,
		TransactionID: "t-md",
		Metadata:      record.Metadata{"duplicateOf": record.FieldString("B7KQ2MXN")},
	}, registrationAgent)
	assert.True(t, rec.HasFlag(record.FlagPotentialDuplicate))

	rec = apply(t, e, rec, ActionInput{Type: record.ActionResolveDuplicate, TransactionID: "t-rd"}, registrar)
	assert.False(t, rec.HasFlag(record.FlagPotentialDuplicate))
}

func TestReopenFromRejectedAndArchived(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t-d"}, fieldAgent)
	rec = apply(t, e, rec, ActionInput{Type: record.ActionReject, TransactionID: "t-rj"}, registrationAgent)
	assert.Equal(t, record.StatusRejected, rec.Status)

	rec = apply(t, e, rec, ActionInput{Type: record.ActionDeclare, TransactionID: "t-d2"}, fieldAgent)
	assert.Equal(t, record.StatusDeclared, rec.Status)

	rec = apply(t, e, rec, ActionInput{Type: record.ActionArchive, TransactionID: "t-ar"}, registrationAgent)
	assert.Equal(t, record.StatusArchived, rec.Status)

	rec = apply(t, e, rec, ActionInput{Type: record.ActionValidate, TransactionID: "t-v"}, registrar)
	assert.Equal(t, record.StatusValidated, rec.Status, "archived records reopen on validate")
}

func TestDeleteDraftOnlyFromInProgress(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")

	out, err := e.Apply(rec, ActionInput{
		Type:          record.ActionDeleteDraft,
		TransactionID: "t-del",
		BaseVersion:   rec.Version(),
	}, fieldAgent)
	require.NoError(t, err)
	assert.Equal(t, record.ActionDeleteDraft, out.History[len(out.History)-1].Type)

	rec2 := createBirth(t, e, "2024-02-21")
	rec2 = apply(t, e, rec2, ActionInput{Type: record.ActionDeclare, TransactionID: "t-d"}, fieldAgent)
	_, err = e.Apply(rec2, ActionInput{
		Type:          record.ActionDeleteDraft,
		TransactionID: "t-del2",
		BaseVersion:   rec2.Version(),
	}, fieldAgent)
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t)
	rec := createBirth(t, e, "2024-02-20")
	snapshotVersion := rec.Version()
	snapshotName := rec.Declaration["child.firstname"]

	_ = apply(t, e, rec, ActionInput{
		Type:          record.ActionDeclare,
		TransactionID: "t-d",
		Declaration:   record.Declaration{"child.firstname": record.FieldString("Ngozi")},
	}, fieldAgent)

	assert.Equal(t, snapshotVersion, rec.Version())
	assert.Equal(t, snapshotName, rec.Declaration["child.firstname"])
}

func TestActionIDsAreUniquePerAction(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	seen := make(map[string]bool)
	for _, act := range rec.History {
		require.False(t, seen[act.ID], "duplicate action ID %s", act.ID)
		seen[act.ID] = true
	}
}

func TestStatusBeforeAfterContinuity(t *testing.T) {
	e := newTestEngine(t)
	rec := registeredBirth(t, e)

	for i := 1; i < len(rec.History); i++ {
		assert.Equal(t, rec.History[i-1].StatusAfter, rec.History[i].StatusBefore,
			fmt.Sprintf("discontinuity at history[%d]", i))
	}
}
