package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrocart_back_end/internal/apperr"
	"electrocart_back_end/internal/events"
	"electrocart_back_end/internal/models"
	"electrocart_back_end/internal/storage/memory"
	"electrocart_back_end/internal/utils"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *recordingAuditor) Record(_ context.Context, e models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingAuditor) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, evt)
}

type fixture struct {
	svc       *Service
	store     *memory.Store
	audit     *recordingAuditor
	events    *recordingPublisher
	customer  *models.User
	other     *models.User
	admin     *models.User
	phone     *models.Product
	accessory *models.Product
}

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	f := &fixture{
		store:     st,
		audit:     &recordingAuditor{},
		events:    &recordingPublisher{},
		customer:  &models.User{ID: "u-alice", Name: "Alice", Email: "a@x.com"},
		other:     &models.User{ID: "u-bob", Name: "Bob", Email: "b@x.com"},
		admin:     &models.User{ID: "u-admin", Name: "Admin", Email: "admin@x.com", IsAdmin: true},
		phone:     &models.Product{ID: "p-phone", Name: "Phone X", Slug: "phone-x", Price: 499.5, CreatedAt: fixedNow},
		accessory: &models.Product{ID: "p-case", Name: "Case", Slug: "case", Price: 20, CreatedAt: fixedNow},
	}
	for _, u := range []*models.User{f.customer, f.other, f.admin} {
		require.NoError(t, st.CreateUser(ctx, u))
	}
	require.NoError(t, st.CreateProduct(ctx, f.phone))
	require.NoError(t, st.CreateProduct(ctx, f.accessory))

	f.svc = NewService(Deps{
		Orders:   st,
		Users:    st,
		Products: st,
		Audit:    f.audit,
		Events:   f.events,
	})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func validInput(method string) CreateInput {
	return CreateInput{
		Items: []ItemInput{
			{ProductID: "p-phone", Quantity: 1},
			{ProductID: "p-case", Quantity: 2},
		},
		ShippingAddress: models.ShippingAddress{FullName: "Alice A", Address: "1 Main St", City: "Paris", Country: "FR"},
		Total:           539.5,
		PaymentMethod:   method,
	}
}

func TestCreateOrder_CashOnDeliveryIsUnpaid(t *testing.T) {
	f := setup(t)

	order, err := f.svc.CreateOrder(context.Background(), Actor{User: f.customer}, validInput("cod"))
	require.NoError(t, err)

	assert.False(t, order.IsPaid)
	assert.Nil(t, order.PaidAt)
	assert.Equal(t, "processing", order.Status)
	assert.Equal(t, models.DeliveryPending, order.DeliveryStatus)
	require.Len(t, order.DeliveryUpdates, 1)
	assert.Equal(t, "pending", order.DeliveryUpdates[0].Status)
	assert.Equal(t, models.SeedLocation, order.DeliveryUpdates[0].Location)
	assert.Equal(t, f.customer.ID, order.UserID)
	assert.Equal(t, 539.5, order.Total)
}

func TestCreateOrder_PaidFlag(t *testing.T) {
	tests := []struct {
		method string
		paid   bool
	}{
		{"cod", false},
		{"COD", false},
		{"cash-on-delivery", false},
		{"", false},
		{"card", true},
		{"paypal", true},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			f := setup(t)
			order, err := f.svc.CreateOrder(context.Background(), Actor{User: f.customer}, validInput(tt.method))
			require.NoError(t, err)
			assert.Equal(t, tt.paid, order.IsPaid)
			assert.Equal(t, tt.paid, order.PaidAt != nil)
		})
	}
}

func TestCreateOrder_SnapshotsCatalogPrices(t *testing.T) {
	f := setup(t)
	order, err := f.svc.CreateOrder(context.Background(), Actor{User: f.customer}, validInput("card"))
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Phone X", order.Items[0].Name)
	assert.Equal(t, 499.5, order.Items[0].Price)
	assert.Equal(t, 2, order.Items[1].Quantity)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	actor := Actor{User: f.customer}

	empty := validInput("cod")
	empty.Items = nil
	_, err := f.svc.CreateOrder(ctx, actor, empty)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	noAddress := validInput("cod")
	noAddress.ShippingAddress = models.ShippingAddress{}
	_, err = f.svc.CreateOrder(ctx, actor, noAddress)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	unknown := validInput("cod")
	unknown.Items = []ItemInput{{ProductID: "nope", Quantity: 1}}
	_, err = f.svc.CreateOrder(ctx, actor, unknown)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	zeroQty := validInput("cod")
	zeroQty.Items[0].Quantity = 0
	_, err = f.svc.CreateOrder(ctx, actor, zeroQty)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateOrder_CustomerTargetIgnored(t *testing.T) {
	f := setup(t)
	in := validInput("cod")
	in.TargetUser = f.other.ID

	order, err := f.svc.CreateOrder(context.Background(), Actor{User: f.customer}, in)
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, order.UserID)
	assert.Empty(t, f.audit.actions())
}

func TestCreateOrder_AdminWithoutTargetIsForbidden(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateOrder(context.Background(), Actor{User: f.admin, IP: "10.0.0.1"}, validInput("cod"))
	require.Error(t, err)
	assert.Equal(t, 403, apperr.Status(err))
	assert.Equal(t, []string{utils.ACTION_ORDER_CREATE_BLOCKED}, f.audit.actions())
	assert.Equal(t, "10.0.0.1", f.audit.entries[0].IPAddress)
	assert.Equal(t, f.admin.Email, f.audit.entries[0].UserEmail)

	list, _ := f.store.ListOrders(context.Background())
	assert.Empty(t, list)
}

func TestCreateOrder_AdminSelfOrderRejected(t *testing.T) {
	for _, ref := range []string{"u-admin", "admin@x.com"} {
		t.Run(ref, func(t *testing.T) {
			f := setup(t)
			in := validInput("cod")
			in.TargetUser = ref

			_, err := f.svc.CreateOrder(context.Background(), Actor{User: f.admin}, in)
			require.Error(t, err)
			assert.Equal(t, 400, apperr.Status(err))
			assert.Equal(t, []string{utils.ACTION_ORDER_CREATE_BLOCKED}, f.audit.actions())
		})
	}
}

func TestCreateOrder_AdminOnBehalf(t *testing.T) {
	f := setup(t)
	in := validInput("card")
	in.TargetUser = "A@X.com"

	order, err := f.svc.CreateOrder(context.Background(), Actor{User: f.admin}, in)
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, order.UserID)
	assert.Equal(t, []string{utils.ACTION_ORDER_CREATE_ON_BEHALF}, f.audit.actions())
	assert.Equal(t, f.customer.ID, f.audit.entries[0].TargetID)

	in.TargetUser = "u-ghost"
	_, err = f.svc.CreateOrder(context.Background(), Actor{User: f.admin}, in)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestCreateOrder_PublishesEvent(t *testing.T) {
	f := setup(t)
	order, err := f.svc.CreateOrder(context.Background(), Actor{User: f.customer}, validInput("cod"))
	require.NoError(t, err)

	require.Len(t, f.events.got, 1)
	assert.Equal(t, events.TypeOrderCreated, f.events.got[0].Type)
	assert.Equal(t, order.ID, f.events.got[0].OrderID)
}

func TestUpdateStatus_AppendRules(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name       string
		in         StatusUpdate
		appended   bool
		wantStatus string
		wantLoc    string
		wantNote   string
	}{
		{
			name:       "delivery status and location",
			in:         StatusUpdate{DeliveryStatus: str("shipped"), Location: str("Hub-1")},
			appended:   true,
			wantStatus: "shipped",
			wantLoc:    "Hub-1",
			wantNote:   "shipped update",
		},
		{
			name:       "note falls back to status",
			in:         StatusUpdate{Status: str("completed"), Note: str("Left at door")},
			appended:   true,
			wantStatus: "completed",
			wantLoc:    models.DefaultUpdateLocation,
			wantNote:   "Left at door",
		},
		{
			name:       "location only keeps current delivery status",
			in:         StatusUpdate{Location: str("Lyon")},
			appended:   true,
			wantStatus: "pending",
			wantLoc:    "Lyon",
			wantNote:   "pending update",
		},
		{
			name:     "status only",
			in:       StatusUpdate{Status: str("completed")},
			appended: false,
		},
		{
			name:     "tracking number only",
			in:       StatusUpdate{TrackingNumber: str("TRK-1")},
			appended: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			order, err := f.svc.CreateOrder(ctx, Actor{User: f.customer}, validInput("cod"))
			require.NoError(t, err)

			updated, err := f.svc.UpdateStatus(ctx, Actor{User: f.admin}, order.ID, tt.in)
			require.NoError(t, err)

			if !tt.appended {
				assert.Len(t, updated.DeliveryUpdates, 1)
				return
			}
			require.Len(t, updated.DeliveryUpdates, 2)
			last := updated.DeliveryUpdates[1]
			assert.Equal(t, tt.wantStatus, last.Status)
			assert.Equal(t, tt.wantLoc, last.Location)
			assert.Equal(t, tt.wantNote, last.Note)
			assert.Equal(t, order.DeliveryUpdates[0], updated.DeliveryUpdates[0])
		})
	}
}

func TestUpdateStatus_OverwritesFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, Actor{User: f.customer}, validInput("cod"))
	require.NoError(t, err)

	status, ds, trk := "completed", "Delivered", "TRK-42"
	updated, err := f.svc.UpdateStatus(ctx, Actor{User: f.admin}, order.ID, StatusUpdate{
		Status: &status, DeliveryStatus: &ds, TrackingNumber: &trk,
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, models.DeliveryDelivered, updated.DeliveryStatus)
	assert.Equal(t, "TRK-42", updated.TrackingNumber)
	assert.Contains(t, f.audit.actions(), utils.ACTION_ORDER_UPDATE)
	assert.Equal(t, events.TypeOrderStatusUpdated, f.events.got[len(f.events.got)-1].Type)
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, Actor{User: f.customer}, validInput("cod"))
	require.NoError(t, err)

	bad := "teleported"
	_, err = f.svc.UpdateStatus(ctx, Actor{User: f.admin}, order.ID, StatusUpdate{DeliveryStatus: &bad})
	assert.Equal(t, 400, apperr.Status(err))

	blank := "  "
	_, err = f.svc.UpdateStatus(ctx, Actor{User: f.admin}, order.ID, StatusUpdate{Status: &blank})
	assert.Equal(t, 400, apperr.Status(err))

	shipped := "shipped"
	_, err = f.svc.UpdateStatus(ctx, Actor{User: f.admin}, "missing", StatusUpdate{DeliveryStatus: &shipped})
	assert.Equal(t, 404, apperr.Status(err))

	unchanged, err := f.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, unchanged.DeliveryUpdates, 1)
}

func TestUpdateStatus_ConcurrentAppendsAreKept(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, Actor{User: f.customer}, validInput("cod"))
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loc := "Hub"
			_, err := f.svc.UpdateStatus(ctx, Actor{User: f.admin}, order.ID, StatusUpdate{Location: &loc})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := f.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, final.DeliveryUpdates, n+1)
}

func TestGetForTracking(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, Actor{User: f.customer}, validInput("cod"))
	require.NoError(t, err)

	got, err := f.svc.GetForTracking(ctx, order.ID, f.customer)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetForTracking(ctx, order.ID, f.admin)
	require.NoError(t, err)

	_, err = f.svc.GetForTracking(ctx, order.ID, f.other)
	assert.Equal(t, 403, apperr.Status(err))
	assert.Equal(t, MsgAccessDenied, apperr.Message(err))

	_, err = f.svc.GetForTracking(ctx, "missing", f.other)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestListForUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	mine, err := f.svc.ListForUser(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	first, err := f.svc.CreateOrder(ctx, Actor{User: f.customer}, validInput("cod"))
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, Actor{User: f.customer}, validInput("card"))
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, Actor{User: f.other}, validInput("card"))
	require.NoError(t, err)

	mine, err = f.svc.ListForUser(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, first.ID, mine[0].ID)
	assert.Equal(t, second.ID, mine[1].ID)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
