package extraction

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type fakeExtractor struct {
	order *Order
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript, callerID string, now time.Time) (*Order, error) {
	f.calls++
	return f.order, f.err
}

type fakeNotifier struct {
	customerCalls int
	operatorCalls int
	customerErr   error
}

func (f *fakeNotifier) NotifyCustomer(ctx context.Context, to string, order *Order) error {
	f.customerCalls++
	return f.customerErr
}

func (f *fakeNotifier) NotifyOperator(ctx context.Context, caller string, order *Order) error {
	f.operatorCalls++
	return nil
}

type fakeStore struct {
	saves int
	err   error
}

func (f *fakeStore) SaveOrder(ctx context.Context, caller string, order *Order) error {
	f.saves++
	return f.err
}

func confirmedOrder() *Order {
	return &Order{
		Name:      "Dana",
		Phone:     "+15551234567",
		Items:     []string{"1 Margherita"},
		Time:      "12:20",
		Total:     "$14",
		Confirmed: true,
	}
}

func TestFinalize_ConfirmedOrderFansOut(t *testing.T) {
	ex := &fakeExtractor{order: confirmedOrder()}
	nt := &fakeNotifier{}
	st := &fakeStore{}

	trigger := NewTrigger(ex, nt, st, time.UTC)
	trigger.Finalize(context.Background(), "+15551234567", "user: one Margherita\n")

	if ex.calls != 1 {
		t.Errorf("Expected 1 extraction, got %d", ex.calls)
	}
	if nt.customerCalls != 1 {
		t.Errorf("Expected 1 customer notification, got %d", nt.customerCalls)
	}
	if nt.operatorCalls != 1 {
		t.Errorf("Expected 1 operator notification, got %d", nt.operatorCalls)
	}
	if st.saves != 1 {
		t.Errorf("Expected 1 persisted order, got %d", st.saves)
	}
}

func TestFinalize_UnconfirmedOrderDoesNothing(t *testing.T) {
	ex := &fakeExtractor{order: &Order{Confirmed: false}}
	nt := &fakeNotifier{}
	st := &fakeStore{}

	trigger := NewTrigger(ex, nt, st, time.UTC)
	trigger.Finalize(context.Background(), "+15551234567", "user: just checking your hours\n")

	if nt.customerCalls != 0 || nt.operatorCalls != 0 {
		t.Errorf("Expected no notifications, got %d customer and %d operator",
			nt.customerCalls, nt.operatorCalls)
	}
	if st.saves != 0 {
		t.Errorf("Expected no persisted orders, got %d", st.saves)
	}
}

func TestFinalize_ExtractionFailureStopsFanOut(t *testing.T) {
	ex := &fakeExtractor{err: fmt.Errorf("model unavailable")}
	nt := &fakeNotifier{}
	st := &fakeStore{}

	trigger := NewTrigger(ex, nt, st, time.UTC)
	trigger.Finalize(context.Background(), "+15551234567", "user: one Margherita\n")

	if nt.customerCalls != 0 || nt.operatorCalls != 0 || st.saves != 0 {
		t.Error("Expected no collaborator calls after extraction failure")
	}
}

func TestFinalize_CustomerFailureDoesNotBlockOthers(t *testing.T) {
	ex := &fakeExtractor{order: confirmedOrder()}
	nt := &fakeNotifier{customerErr: fmt.Errorf("sms rejected")}
	st := &fakeStore{}

	trigger := NewTrigger(ex, nt, st, time.UTC)
	trigger.Finalize(context.Background(), "+15551234567", "user: one Margherita\n")

	if nt.operatorCalls != 1 {
		t.Errorf("Expected operator notification despite customer failure, got %d", nt.operatorCalls)
	}
	if st.saves != 1 {
		t.Errorf("Expected persisted order despite customer failure, got %d", st.saves)
	}
}

func TestFinalize_NilCollaborators(t *testing.T) {
	ex := &fakeExtractor{order: confirmedOrder()}

	trigger := NewTrigger(ex, nil, nil, time.UTC)
	// Must not panic when SMS and persistence are unconfigured.
	trigger.Finalize(context.Background(), "+15551234567", "user: one Margherita\n")

	if ex.calls != 1 {
		t.Errorf("Expected 1 extraction, got %d", ex.calls)
	}
}
