package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/merithub/merit/internal/model"
)

func TestSubmitTaskCompletion(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 25)

	req, err := e.SubmitTaskCompletion(g.ID, user.ID, entry.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != model.RequestPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.Title != entry.Title || req.Points != entry.Points {
		t.Errorf("snapshot = (%q, %d), want (%q, %d)", req.Title, req.Points, entry.Title, entry.Points)
	}
	if req.Kind != model.KindTask {
		t.Errorf("kind = %q, want task", req.Kind)
	}
}

func TestSubmitRequestInactiveEntry(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry, err := e.CreateCatalogEntry(g.ID, admin.ID, model.KindTask, "Retired", "", 10, false)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if _, err := e.SubmitTaskCompletion(g.ID, user.ID, entry.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestSubmitRequestKindMismatch(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	prize := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPrize, 10)

	// A prize entry cannot back a task completion.
	if _, err := e.SubmitTaskCompletion(g.ID, user.ID, prize.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitRequestDeactivatedMember(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 10)
	if _, err := e.DeactivateMember(g.ID, user.ID, admin.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := e.SubmitTaskCompletion(g.ID, user.ID, entry.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestSubmitPrizeInsufficientBalance(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	prize := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPrize, 100)
	seedPoints(t, e, g.ID, admin.ID, user.ID, 50)

	if _, err := e.SubmitPrizeApplication(g.ID, user.ID, prize.ID); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestSubmitPrizeDuplicatePending(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	prize := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPrize, 10)
	seedPoints(t, e, g.ID, admin.ID, user.ID, 100)

	if _, err := e.SubmitPrizeApplication(g.ID, user.ID, prize.ID); err != nil {
		t.Fatalf("first application: %v", err)
	}
	if _, err := e.SubmitPrizeApplication(g.ID, user.ID, prize.ID); !errors.Is(err, ErrDuplicatePending) {
		t.Errorf("err = %v, want ErrDuplicatePending", err)
	}
}

func TestSubmitPenaltyNotAdmin(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	penalty := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPenalty, 5)

	if _, err := e.SubmitPenalty(g.ID, user.ID, user.ID, penalty.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestApproveTaskCompletion(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 25)

	req, _ := e.SubmitTaskCompletion(g.ID, user.ID, entry.ID)
	approved, err := e.ApproveRequest(req.ID, admin.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != model.RequestApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}

	u, _ := e.Balance(user.ID)
	if u.CurrentPoints != 25 || u.TotalEarned != 25 || u.TotalRedeemed != 0 {
		t.Errorf("projection = (%d, %d, %d), want (25, 25, 0)", u.CurrentPoints, u.TotalEarned, u.TotalRedeemed)
	}

	m, _ := e.members.Get(g.ID, user.ID)
	if m.PointsEarned != 25 || m.PointsRedeemed != 0 {
		t.Errorf("member aggregate = (%d, %d), want (25, 0)", m.PointsEarned, m.PointsRedeemed)
	}

	txns, _ := e.History(user.ID)
	if len(txns) != 1 || txns[0].Type != model.TxEarn || txns[0].Amount != 25 {
		t.Errorf("ledger = %+v, want one earn of 25", txns)
	}
}

func TestApprovePrizeApplication(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	prize := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPrize, 30)
	seedPoints(t, e, g.ID, admin.ID, user.ID, 100)

	req, _ := e.SubmitPrizeApplication(g.ID, user.ID, prize.ID)
	if _, err := e.ApproveRequest(req.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	u, _ := e.Balance(user.ID)
	if u.CurrentPoints != 70 || u.TotalEarned != 100 || u.TotalRedeemed != 30 {
		t.Errorf("projection = (%d, %d, %d), want (70, 100, 30)", u.CurrentPoints, u.TotalEarned, u.TotalRedeemed)
	}

	m, _ := e.members.Get(g.ID, user.ID)
	if m.AvailablePoints() != 70 {
		t.Errorf("member balance = %d, want 70", m.AvailablePoints())
	}
}

// A penalty reduces the current balance only. The earn/redeem totals are an
// accounting of voluntary flows and stay untouched.
func TestApprovePenalty(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	penalty := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPenalty, 10)
	seedPoints(t, e, g.ID, admin.ID, user.ID, 50)

	req, err := e.SubmitPenalty(g.ID, admin.ID, user.ID, penalty.ID)
	if err != nil {
		t.Fatalf("submit penalty: %v", err)
	}
	if _, err := e.ApproveRequest(req.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	u, _ := e.Balance(user.ID)
	if u.CurrentPoints != 40 || u.TotalEarned != 50 || u.TotalRedeemed != 0 {
		t.Errorf("projection = (%d, %d, %d), want (40, 50, 0)", u.CurrentPoints, u.TotalEarned, u.TotalRedeemed)
	}

	m, _ := e.members.Get(g.ID, user.ID)
	if m.AvailablePoints() != 40 {
		t.Errorf("member balance = %d, want 40", m.AvailablePoints())
	}
}

func TestApprovePenaltyInsufficientBalance(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	penalty := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPenalty, 30)
	seedPoints(t, e, g.ID, admin.ID, user.ID, 20)

	req, err := e.SubmitPenalty(g.ID, admin.ID, user.ID, penalty.ID)
	if err != nil {
		t.Fatalf("submit penalty: %v", err)
	}

	if _, err := e.ApproveRequest(req.ID, admin.ID); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	u, _ := e.Balance(user.ID)
	if u.CurrentPoints != 20 || u.TotalEarned != 20 || u.TotalRedeemed != 0 {
		t.Errorf("projection = (%d, %d, %d), want (20, 20, 0) unchanged", u.CurrentPoints, u.TotalEarned, u.TotalRedeemed)
	}

	m, _ := e.members.Get(g.ID, user.ID)
	if m.AvailablePoints() != 20 {
		t.Errorf("member balance = %d, want 20 unchanged", m.AvailablePoints())
	}

	after, _ := e.requests.GetByID(req.ID)
	if after.Status != model.RequestPending {
		t.Errorf("status = %q, want pending after failed approval", after.Status)
	}
}

func TestApproveRequestNotAdmin(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 10)

	req, _ := e.SubmitTaskCompletion(g.ID, user.ID, entry.ID)
	if _, err := e.ApproveRequest(req.ID, user.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestApproveRequestTwice(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 10)

	req, _ := e.SubmitTaskCompletion(g.ID, user.ID, entry.ID)
	if _, err := e.ApproveRequest(req.ID, admin.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := e.ApproveRequest(req.ID, admin.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("err = %v, want ErrAlreadyProcessed", err)
	}

	// No double credit.
	u, _ := e.Balance(user.ID)
	if u.CurrentPoints != 10 {
		t.Errorf("balance = %d, want 10", u.CurrentPoints)
	}
}

// The submission-time balance check is advisory. Approval re-validates at
// commit, and a failed re-validation leaves the request pending.
func TestApprovePrizeInsufficientAtCommit(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	prize := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPrize, 40)
	penalty := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPenalty, 30)
	seedPoints(t, e, g.ID, admin.ID, user.ID, 50)

	prizeReq, err := e.SubmitPrizeApplication(g.ID, user.ID, prize.ID)
	if err != nil {
		t.Fatalf("submit prize: %v", err)
	}

	// Drain the balance below the prize cost before the prize is approved.
	penaltyReq, err := e.SubmitPenalty(g.ID, admin.ID, user.ID, penalty.ID)
	if err != nil {
		t.Fatalf("submit penalty: %v", err)
	}
	if _, err := e.ApproveRequest(penaltyReq.ID, admin.ID); err != nil {
		t.Fatalf("approve penalty: %v", err)
	}

	if _, err := e.ApproveRequest(prizeReq.ID, admin.ID); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	after, _ := e.requests.GetByID(prizeReq.ID)
	if after.Status != model.RequestPending {
		t.Errorf("status = %q, want pending after failed approval", after.Status)
	}
	u, _ := e.Balance(user.ID)
	if u.CurrentPoints != 20 {
		t.Errorf("balance = %d, want 20 (no partial commit)", u.CurrentPoints)
	}
}

func TestRejectRequest(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 10)

	req, _ := e.SubmitTaskCompletion(g.ID, user.ID, entry.ID)
	rejected, err := e.RejectRequest(req.ID, admin.ID, "photo missing")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != model.RequestRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
	if rejected.RejectionReason != "photo missing" {
		t.Errorf("reason = %q, want %q", rejected.RejectionReason, "photo missing")
	}

	u, _ := e.Balance(user.ID)
	if u.CurrentPoints != 0 {
		t.Errorf("balance = %d, want 0 after rejection", u.CurrentPoints)
	}
}

// Two pending prize applications each cost the user's entire balance.
// Approving both concurrently must commit exactly one; the other fails
// InsufficientBalance at commit and stays pending.
func TestConcurrentApprovalsRespectBalance(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	prizeA := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPrize, 50)
	prizeB, err := e.CreateCatalogEntry(g.ID, admin.ID, model.KindPrize, "Second prize", "", 50, true)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	seedPoints(t, e, g.ID, admin.ID, user.ID, 50)

	reqA, err := e.SubmitPrizeApplication(g.ID, user.ID, prizeA.ID)
	if err != nil {
		t.Fatalf("submit A: %v", err)
	}
	reqB, err := e.SubmitPrizeApplication(g.ID, user.ID, prizeB.ID)
	if err != nil {
		t.Fatalf("submit B: %v", err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = e.ApproveRequest(reqA.ID, admin.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = e.ApproveRequest(reqB.ID, admin.ID)
	}()
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientBalance):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("got %d successes and %d balance failures, want 1 and 1", ok, insufficient)
	}

	u, _ := e.Balance(user.ID)
	if u.CurrentPoints != 0 {
		t.Errorf("balance = %d, want 0", u.CurrentPoints)
	}
	m, _ := e.members.Get(g.ID, user.ID)
	if m.AvailablePoints() != 0 {
		t.Errorf("member balance = %d, want 0", m.AvailablePoints())
	}
}

// Requests keep their submission-time snapshot when the catalog entry is
// hard-deleted; only the catalog link is detached.
func TestRequestSnapshotSurvivesCatalogDelete(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 15)

	req, _ := e.SubmitTaskCompletion(g.ID, user.ID, entry.ID)
	if _, err := e.ApproveRequest(req.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := e.DeleteCatalogEntry(entry.ID, admin.ID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}

	after, err := e.requests.GetByID(req.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if after.Title != entry.Title || after.Points != entry.Points {
		t.Errorf("snapshot = (%q, %d), want (%q, %d)", after.Title, after.Points, entry.Title, entry.Points)
	}
	if after.CatalogEntryID != nil {
		t.Errorf("catalog link = %v, want detached", after.CatalogEntryID)
	}
}
