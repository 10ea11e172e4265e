package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

var (
	admin    = domain.Principal{UserID: 1, Role: domain.RoleAdmin}
	managerA = domain.Principal{UserID: 10, Role: domain.RoleCaseManager}
	managerB = domain.Principal{UserID: 20, Role: domain.RoleCaseManager}
	reviewer = domain.Principal{UserID: 30, Role: domain.RoleReviewer}
)

type caseFixture struct {
	svc   *CaseService
	cases *stubCaseRepo
	users *stubUserRepo
	pub   *recordingPublisher
	trail *stubTrail
	idem  *stubIdempotency
}

func newCaseFixture() *caseFixture {
	f := &caseFixture{
		cases: newStubCaseRepo(),
		users: newStubUserRepo(
			&domain.User{ID: 1, Email: "admin@x.io", Role: domain.RoleAdmin, IsActive: true},
			&domain.User{ID: 10, Email: "a@x.io", Role: domain.RoleCaseManager, IsActive: true},
			&domain.User{ID: 20, Email: "b@x.io", Role: domain.RoleCaseManager, IsActive: true},
		),
		pub:   &recordingPublisher{},
		trail: &stubTrail{},
		idem:  newStubIdempotency(),
	}
	f.svc = NewCaseService(f.cases, f.users, f.pub, f.trail, f.idem, zerolog.Nop())
	return f
}

// seedScoping creates three cases for manager A and two for manager B.
func (f *caseFixture) seedScoping() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.cases.seed(domain.Case{CaseNumber: "CASE-A", CaseManagerID: managerA.UserID, Title: "A case", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	for i := 0; i < 2; i++ {
		f.cases.seed(domain.Case{CaseNumber: "CASE-B", CaseManagerID: managerB.UserID, Title: "B case", CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
}

func firstPage(size int) ports.Page { return ports.Page{Number: 1, Size: size} }

func TestCaseService_ListCases_ManagerScoping(t *testing.T) {
	f := newCaseFixture()
	f.seedScoping()
	ctx := context.Background()

	page, err := f.svc.ListCases(ctx, managerA, ports.CaseQuery{Page: firstPage(10)})
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if page.Pagination.TotalItems != 3 || len(page.Items) != 3 {
		t.Fatalf("manager A: expected 3 cases, got total=%d items=%d", page.Pagination.TotalItems, len(page.Items))
	}
	for _, c := range page.Items {
		if c.CaseManagerID != managerA.UserID {
			t.Fatalf("manager A saw a case managed by %d", c.CaseManagerID)
		}
	}
	if f.cases.lastFilter.CaseManagerID != managerA.UserID {
		t.Fatalf("scope must be set by the service, got %d", f.cases.lastFilter.CaseManagerID)
	}

	page, _ = f.svc.ListCases(ctx, admin, ports.CaseQuery{Page: firstPage(10)})
	if page.Pagination.TotalItems != 5 {
		t.Fatalf("admin: expected 5 cases, got %d", page.Pagination.TotalItems)
	}
	if f.cases.lastFilter.CaseManagerID != 0 {
		t.Fatalf("admin listing must be unscoped")
	}

	page, _ = f.svc.ListCases(ctx, reviewer, ports.CaseQuery{Page: firstPage(10)})
	if page.Pagination.TotalItems != 5 {
		t.Fatalf("reviewer: expected 5 cases, got %d", page.Pagination.TotalItems)
	}
}

func TestCaseService_ListCases_PaginationAndOrder(t *testing.T) {
	f := newCaseFixture()
	f.seedScoping()

	page, err := f.svc.ListCases(context.Background(), admin, ports.CaseQuery{Page: ports.Page{Number: 2, Size: 2}})
	if err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if f.cases.lastFilter.Limit != 2 || f.cases.lastFilter.Offset != 2 {
		t.Fatalf("unexpected window: %+v", f.cases.lastFilter)
	}
	if page.Pagination.TotalPages != 3 || page.Pagination.Page != 2 || page.Pagination.PageSize != 2 {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(page.Items))
	}
	if page.Items[0].CreatedAt.Before(page.Items[1].CreatedAt) {
		t.Fatalf("items must be newest first")
	}
}

func TestCaseService_ListCases_Search(t *testing.T) {
	f := newCaseFixture()
	f.cases.seed(domain.Case{CaseNumber: "CASE-1700000000000-AbC123", Title: "Housing support", CaseManagerID: 10})
	f.cases.seed(domain.Case{CaseNumber: "CASE-1700000000001-XyZ789", Title: "School fees", CaseManagerID: 10})

	page, _ := f.svc.ListCases(context.Background(), admin, ports.CaseQuery{Search: "housing", Page: firstPage(10)})
	if page.Pagination.TotalItems != 1 || page.Items[0].Title != "Housing support" {
		t.Fatalf("title search failed: %+v", page.Items)
	}

	page, _ = f.svc.ListCases(context.Background(), admin, ports.CaseQuery{Search: "xyz789", Page: firstPage(10)})
	if page.Pagination.TotalItems != 1 || page.Items[0].Title != "School fees" {
		t.Fatalf("case number search failed: %+v", page.Items)
	}
}

func TestCaseService_ListCases_Validation(t *testing.T) {
	f := newCaseFixture()
	ctx := context.Background()

	if _, err := f.svc.ListCases(ctx, admin, ports.CaseQuery{Page: ports.Page{Number: 0, Size: 10}}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("page 0: expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.ListCases(ctx, admin, ports.CaseQuery{Status: "archived", Page: firstPage(10)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad status: expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.ListCases(ctx, admin, ports.CaseQuery{Priority: "critical", Page: firstPage(10)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad priority: expected ErrValidation, got %v", err)
	}
}

func TestCaseService_CreateCase(t *testing.T) {
	f := newCaseFixture()

	res, err := f.svc.CreateCase(context.Background(), managerA, ports.CreateCaseInput{ClientID: 7, Title: "  Rent arrears  "})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	c := res.Case
	if c.Status != domain.StatusOpen || c.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected defaults: %s %s", c.Status, c.Priority)
	}
	if c.CaseManagerID != managerA.UserID {
		t.Fatalf("manager must be the caller, got %d", c.CaseManagerID)
	}
	if c.Title != "Rent arrears" || c.Tags == nil {
		t.Fatalf("unexpected case: %+v", c)
	}
	if !caseNumberPattern.MatchString(c.CaseNumber) {
		t.Fatalf("malformed case number %q", c.CaseNumber)
	}
	if got := f.pub.actions(); len(got) != 1 || got[0] != domain.ActionCaseCreated {
		t.Fatalf("expected case.created event, got %v", got)
	}
}

func TestCaseService_CreateCase_Validation(t *testing.T) {
	f := newCaseFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateCase(ctx, managerA, ports.CreateCaseInput{Title: "no client"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing clientId: expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.CreateCase(ctx, managerA, ports.CreateCaseInput{ClientID: 1, Title: " "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank title: expected ErrValidation, got %v", err)
	}
	if _, err := f.svc.CreateCase(ctx, managerA, ports.CreateCaseInput{ClientID: 1, Title: "x", Priority: "asap"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad priority: expected ErrValidation, got %v", err)
	}
}

func TestCaseService_CreateCase_ManagerAssignment(t *testing.T) {
	f := newCaseFixture()
	ctx := context.Background()

	res, err := f.svc.CreateCase(ctx, admin, ports.CreateCaseInput{ClientID: 1, Title: "x", CaseManagerID: managerB.UserID})
	if err != nil {
		t.Fatalf("admin assign: %v", err)
	}
	if res.Case.CaseManagerID != managerB.UserID {
		t.Fatalf("expected manager B, got %d", res.Case.CaseManagerID)
	}

	if _, err := f.svc.CreateCase(ctx, managerA, ports.CreateCaseInput{ClientID: 1, Title: "x", CaseManagerID: managerB.UserID}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("manager assigning others: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.CreateCase(ctx, admin, ports.CreateCaseInput{ClientID: 1, Title: "x", CaseManagerID: 999}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown manager: expected ErrValidation, got %v", err)
	}
}

func TestCaseService_CreateCase_Idempotent(t *testing.T) {
	f := newCaseFixture()
	ctx := context.Background()
	in := ports.CreateCaseInput{ClientID: 3, Title: "Food parcel", IdempotencyKey: "req-1"}

	first, err := f.svc.CreateCase(ctx, managerA, in)
	if err != nil {
		t.Fatalf("first CreateCase: %v", err)
	}
	second, err := f.svc.CreateCase(ctx, managerA, in)
	if err != nil {
		t.Fatalf("second CreateCase: %v", err)
	}
	if !second.Replayed || second.Case.ID != first.Case.ID {
		t.Fatalf("expected replay of case %d, got %+v", first.Case.ID, second)
	}

	other, _ := f.svc.CreateCase(ctx, managerB, in)
	if other.Replayed || other.Case.ID == first.Case.ID {
		t.Fatalf("keys must be scoped per user")
	}
	if len(f.pub.actions()) != 2 {
		t.Fatalf("a replay must not publish activity, got %v", f.pub.actions())
	}
}

func TestCaseService_CreateCase_IdempotencyStoreDown(t *testing.T) {
	f := newCaseFixture()
	f.idem.reserveErr = errors.New("redis down")

	res, err := f.svc.CreateCase(context.Background(), managerA, ports.CreateCaseInput{ClientID: 3, Title: "x", IdempotencyKey: "k"})
	if err != nil {
		t.Fatalf("store failure must not fail creation: %v", err)
	}
	if res.Replayed {
		t.Fatalf("unexpected replay")
	}
}

func TestCaseService_CreateCase_DoubleSubmit(t *testing.T) {
	f := newCaseFixture()
	ctx := context.Background()
	in := ports.CreateCaseInput{ClientID: 3, Title: "Food parcel", IdempotencyKey: "req-1"}

	inserting := make(chan struct{})
	proceed := make(chan struct{})
	f.cases.beforeCreate = func() {
		close(inserting)
		<-proceed
	}

	type outcome struct {
		res *ports.CreateCaseResult
		err error
	}
	firstDone := make(chan outcome, 1)
	go func() {
		res, err := f.svc.CreateCase(ctx, managerA, in)
		firstDone <- outcome{res, err}
	}()

	<-inserting
	if _, err := f.svc.CreateCase(ctx, managerA, in); !errors.Is(err, domain.ErrRequestInProgress) {
		t.Fatalf("retry during create: expected ErrRequestInProgress, got %v", err)
	}
	if !errors.Is(domain.ErrRequestInProgress, domain.ErrConflict) {
		t.Fatalf("ErrRequestInProgress must be a conflict")
	}
	f.cases.beforeCreate = nil
	close(proceed)

	first := <-firstDone
	if first.err != nil || first.res.Replayed {
		t.Fatalf("first create: %+v, %v", first.res, first.err)
	}

	again, err := f.svc.CreateCase(ctx, managerA, in)
	if err != nil {
		t.Fatalf("retry after create: %v", err)
	}
	if !again.Replayed || again.Case.ID != first.res.Case.ID {
		t.Fatalf("expected replay of case %d, got %+v", first.res.Case.ID, again)
	}
	if n := len(f.cases.byID); n != 1 {
		t.Fatalf("one key must produce one case, got %d", n)
	}
}

func TestCaseService_CreateCase_ConcurrentRetries(t *testing.T) {
	f := newCaseFixture()
	ctx := context.Background()
	in := ports.CreateCaseInput{ClientID: 3, Title: "Food parcel", IdempotencyKey: "req-1"}

	const callers = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.CreateCase(ctx, managerA, in)
			if err != nil && !errors.Is(err, domain.ErrRequestInProgress) {
				t.Errorf("CreateCase: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if n := len(f.cases.byID); n != 1 {
		t.Fatalf("one key must produce one case, got %d", n)
	}
}

func TestCaseService_CreateCase_FailureReleasesKey(t *testing.T) {
	f := newCaseFixture()
	ctx := context.Background()
	in := ports.CreateCaseInput{ClientID: 3, Title: "Food parcel", IdempotencyKey: "req-1"}

	f.cases.err = domain.ErrStoreUnavailable
	if _, err := f.svc.CreateCase(ctx, managerA, in); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if len(f.idem.released) != 1 {
		t.Fatalf("a failed create must release its key, released=%v", f.idem.released)
	}

	f.cases.err = nil
	res, err := f.svc.CreateCase(ctx, managerA, in)
	if err != nil || res.Replayed {
		t.Fatalf("retry after failure must create: %+v, %v", res, err)
	}
}

func TestCaseService_CreateCase_StaleKey(t *testing.T) {
	f := newCaseFixture()
	ctx := context.Background()
	in := ports.CreateCaseInput{ClientID: 3, Title: "Food parcel", IdempotencyKey: "req-1"}

	first, err := f.svc.CreateCase(ctx, managerA, in)
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	f.cases.deleted[first.Case.ID] = true

	second, err := f.svc.CreateCase(ctx, managerA, in)
	if err != nil || second.Replayed || second.Case.ID == first.Case.ID {
		t.Fatalf("a key pointing at a deleted case must create anew: %+v, %v", second, err)
	}

	third, err := f.svc.CreateCase(ctx, managerA, in)
	if err != nil || !third.Replayed || third.Case.ID != second.Case.ID {
		t.Fatalf("the new case must take the key over: %+v, %v", third, err)
	}
}

func TestCaseService_GetCase_Scoping(t *testing.T) {
	f := newCaseFixture()
	f.seedScoping()
	ctx := context.Background()

	// ids 1-3 belong to A, 4-5 to B
	if _, err := f.svc.GetCase(ctx, managerA, 1); err != nil {
		t.Fatalf("own case: %v", err)
	}
	if _, err := f.svc.GetCase(ctx, managerA, 4); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("foreign case: expected ErrCaseNotFound, got %v", err)
	}
	if _, err := f.svc.GetCase(ctx, reviewer, 4); err != nil {
		t.Fatalf("reviewer read: %v", err)
	}
}

func TestCaseService_UpdateCase_LastWriteWins(t *testing.T) {
	f := newCaseFixture()
	c := f.cases.seed(domain.Case{CaseNumber: "CASE-1", CaseManagerID: managerA.UserID, Title: "orig", Tags: []string{"a"}})
	ctx := context.Background()

	_, err := f.svc.UpdateCase(ctx, managerA, c.ID, ports.UpdateCaseInput{
		Status: domain.StatusInProgress, Priority: domain.PriorityHigh, Title: "first", Description: "d1", Tags: []string{"x", "y"},
	})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err = f.svc.UpdateCase(ctx, admin, c.ID, ports.UpdateCaseInput{
		Status: domain.StatusOnHold, Priority: domain.PriorityLow, Title: "second",
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	got, _ := f.cases.FindByID(ctx, c.ID)
	if got.Status != domain.StatusOnHold || got.Priority != domain.PriorityLow || got.Title != "second" {
		t.Fatalf("second write must win entirely: %+v", got)
	}
	if got.Description != "" || len(got.Tags) != 0 {
		t.Fatalf("update is a full replacement, no merge: %+v", got)
	}
	if got.CaseManagerID != managerA.UserID {
		t.Fatalf("manager must be kept when not reassigned")
	}
}

func TestCaseService_UpdateCase_Rules(t *testing.T) {
	f := newCaseFixture()
	f.seedScoping()
	ctx := context.Background()
	valid := ports.UpdateCaseInput{Status: domain.StatusOpen, Priority: domain.PriorityMedium, Title: "t"}

	if _, err := f.svc.UpdateCase(ctx, managerA, 4, valid); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("foreign case: expected ErrCaseNotFound, got %v", err)
	}

	reassign := valid
	target := managerB.UserID
	reassign.CaseManagerID = &target
	if _, err := f.svc.UpdateCase(ctx, managerA, 1, reassign); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("manager reassigning: expected ErrForbidden, got %v", err)
	}
	updated, err := f.svc.UpdateCase(ctx, admin, 1, reassign)
	if err != nil {
		t.Fatalf("admin reassign: %v", err)
	}
	if updated.CaseManagerID != managerB.UserID {
		t.Fatalf("expected reassignment to B, got %d", updated.CaseManagerID)
	}

	bad := valid
	bad.Status = "done"
	if _, err := f.svc.UpdateCase(ctx, admin, 2, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad status: expected ErrValidation, got %v", err)
	}
}

func TestCaseService_DeleteCase_Idempotent(t *testing.T) {
	f := newCaseFixture()
	c := f.cases.seed(domain.Case{CaseNumber: "CASE-1", CaseManagerID: managerA.UserID, Title: "t"})
	ctx := context.Background()

	if err := f.svc.DeleteCase(ctx, managerA, c.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := f.svc.DeleteCase(ctx, managerA, c.ID); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("second delete: expected ErrCaseNotFound, got %v", err)
	}
	if _, err := f.svc.GetCase(ctx, admin, c.ID); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("deleted case must be invisible, got %v", err)
	}
	page, _ := f.svc.ListCases(ctx, admin, ports.CaseQuery{Page: firstPage(10)})
	if page.Pagination.TotalItems != 0 {
		t.Fatalf("deleted case must not be listed")
	}
}

func TestCaseService_DeleteCase_ForeignManager(t *testing.T) {
	f := newCaseFixture()
	c := f.cases.seed(domain.Case{CaseNumber: "CASE-1", CaseManagerID: managerA.UserID, Title: "t"})

	if err := f.svc.DeleteCase(context.Background(), managerB, c.ID); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
	if _, err := f.cases.FindByID(context.Background(), c.ID); err != nil {
		t.Fatalf("case must survive a foreign delete: %v", err)
	}
}

func TestCaseService_Statistics(t *testing.T) {
	f := newCaseFixture()
	f.seedScoping()
	f.cases.seed(domain.Case{CaseNumber: "CASE-C", CaseManagerID: managerA.UserID, Status: domain.StatusClosed})

	counts, err := f.svc.Statistics(context.Background(), managerA)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	total := int64(0)
	for _, sc := range counts {
		total += sc.Count
	}
	if total != 4 {
		t.Fatalf("manager A should count 4 cases, got %d (%+v)", total, counts)
	}

	counts, _ = f.svc.Statistics(context.Background(), admin)
	total = 0
	for _, sc := range counts {
		total += sc.Count
	}
	if total != 6 {
		t.Fatalf("admin should count 6 cases, got %d", total)
	}
}

func TestCaseService_Activity(t *testing.T) {
	f := newCaseFixture()
	c := f.cases.seed(domain.Case{CaseNumber: "CASE-1", CaseManagerID: managerA.UserID, Title: "t"})
	f.trail.events = []domain.ActivityEvent{
		{CaseID: c.ID, Action: domain.ActionCaseCreated},
		{CaseID: 99, Action: domain.ActionCaseCreated},
		{CaseID: c.ID, Action: domain.ActionNoteCreated},
	}

	events, err := f.svc.Activity(context.Background(), managerA, c.ID, 0)
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if len(events) != 2 || events[0].Action != domain.ActionNoteCreated {
		t.Fatalf("expected newest-first trail of 2 events, got %+v", events)
	}

	if _, err := f.svc.Activity(context.Background(), managerB, c.ID, 10); !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("foreign manager: expected ErrCaseNotFound, got %v", err)
	}
}
