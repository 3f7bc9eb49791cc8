package create_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	reservationstorage "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/companyservice"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

// Среда 10:00 по Алжиру (UTC+1)
var testStart = time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	reservations *MockReservationRepository
	clients      *MockClientRepository
	history      *MockHistoryRepository
	company      *MockCompanyServiceClient
	notify       *MockNotifyServiceClient
	uc           *UseCase
}

func newTestEnv() *testEnv {
	env := &testEnv{
		reservations: new(MockReservationRepository),
		clients:      new(MockClientRepository),
		history:      new(MockHistoryRepository),
		company:      new(MockCompanyServiceClient),
		notify:       new(MockNotifyServiceClient),
	}

	env.uc = NewUseCase(
		env.reservations,
		env.clients,
		env.history,
		env.company,
		env.notify,
		&stubTxManager{},
		nopLogger{},
	)
	env.uc.timeProvider = &fixedTimeProvider{now: testStart.Add(-time.Minute)}

	return env
}

func testCompany() *companyservice.Company {
	return &companyservice.Company{
		ID:       10,
		Name:     "Жемчужина",
		Timezone: "Africa/Algiers",
		OpeningWindows: []companyservice.OpeningWindow{
			{Weekday: 3, Start: "09:00", End: "18:00"},
		},
	}
}

func testService(id int64, duration int) *companyservice.Service {
	price := 1500.0
	return &companyservice.Service{
		ID:              id,
		CompanyID:       10,
		Name:            "Услуга",
		DurationMinutes: duration,
		Price:           &price,
		Currency:        "RUB",
	}
}

func noDuplicate(env *testEnv) {
	env.reservations.On("FindDuplicate",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, reservationstorage.ErrReservationNotFound)
}

func expectCreate(env *testEnv, ids ...int64) {
	for _, id := range ids {
		created := &domain.Reservation{ID: id, Status: domain.StatusPending}
		env.reservations.On("Create", mock.Anything, mock.Anything).Return(created, nil).Once()
	}
	env.reservations.On("CreateItem", mock.Anything, mock.Anything).
		Return(&domain.ReservationItem{ID: 1}, nil)
	env.history.On("Append", mock.Anything, mock.Anything).
		Return(&domain.StatusHistoryEntry{ID: 1}, nil)
}

func TestExecute_MultiItemChaining(t *testing.T) {
	env := newTestEnv()

	env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	noDuplicate(env)
	env.company.On("GetCompany", mock.Anything, int64(10)).Return(testCompany(), nil)
	env.company.On("GetService", mock.Anything, int64(10), int64(1)).Return(testService(1, 60), nil)
	env.company.On("GetService", mock.Anything, int64(10), int64(2)).Return(testService(2, 30), nil)
	env.company.On("ListEmployees", mock.Anything, int64(10)).Return([]companyservice.Employee{
		{ID: 1, Active: true, ServiceIDs: []int64{1, 2}},
	}, nil)
	env.reservations.On("CountOverlapping", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(0, nil)
	expectCreate(env, 100, 101)
	env.notify.On("SendBookingConfirmation", mock.Anything, mock.Anything).Return(nil).Maybe()

	resp, err := env.uc.Execute(context.Background(), &Request{
		ExternalUserID: 42,
		CompanyID:      10,
		StartsAt:       testStart,
		Items:          []RequestedItem{{ServiceID: 1}, {ServiceID: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(100), resp.ReservationID)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.False(t, resp.Deduplicated)
	assert.True(t, resp.FullyStaffed)
	require.Len(t, resp.Items, 2)

	// Вторая позиция начинается ровно с конца первой
	assert.Equal(t, testStart, resp.Items[0].StartsAt)
	assert.Equal(t, testStart.Add(60*time.Minute), resp.Items[0].EndsAt)
	assert.Equal(t, resp.Items[0].EndsAt, resp.Items[1].StartsAt)
	assert.Equal(t, resp.Items[1].StartsAt.Add(30*time.Minute), resp.Items[1].EndsAt)

	// Каждая позиция получила свою запись журнала
	env.history.AssertNumberOfCalls(t, "Append", 2)
}

func TestExecute_DuplicateShortCircuit(t *testing.T) {
	env := newTestEnv()

	existing := &domain.Reservation{
		ID:       55,
		Status:   domain.StatusPending,
		StartsAt: testStart,
		EndsAt:   testStart.Add(60 * time.Minute),
	}
	employeeID := ptr.Ptr(int64(3))

	env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	env.reservations.On("FindDuplicate",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(existing, nil)
	env.reservations.On("GetItemsByReservationID", mock.Anything, int64(55)).
		Return([]*domain.ReservationItem{
			{ID: 1, ReservationID: 55, ServiceID: 1, EmployeeID: employeeID, Price: 1500, Currency: "RUB", DurationMinutes: 60},
		}, nil)

	resp, err := env.uc.Execute(context.Background(), &Request{
		ExternalUserID: 42,
		CompanyID:      10,
		StartsAt:       testStart,
		Items:          []RequestedItem{{ServiceID: 1}},
	})

	require.NoError(t, err)
	assert.True(t, resp.Deduplicated)
	assert.Equal(t, int64(55), resp.ReservationID)
	require.Len(t, resp.Items, 1)

	// Повтор не доходит ни до валидации расписания, ни до записей
	env.company.AssertNotCalled(t, "GetCompany", mock.Anything, mock.Anything)
	env.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	env.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// Окно поиска дубля привязано к запрошенному началу и моменту запроса:
// те же границы означают, что бронирование в пяти минутах дублем не считается
func TestExecute_DedupLookupWindow(t *testing.T) {
	now := testStart.Add(-time.Minute)

	t.Run("exact bounds passed to lookup", func(t *testing.T) {
		env := newTestEnv()
		existing := &domain.Reservation{
			ID:       55,
			Status:   domain.StatusPending,
			StartsAt: testStart,
			EndsAt:   testStart.Add(60 * time.Minute),
		}

		env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
		env.reservations.On("FindDuplicate", mock.Anything,
			int64(7), int64(10),
			testStart.Add(-time.Minute), testStart.Add(time.Minute),
			now.Add(-time.Minute), int64(1)).
			Return(existing, nil).Once()
		env.reservations.On("GetItemsByReservationID", mock.Anything, int64(55)).
			Return([]*domain.ReservationItem{
				{ID: 1, ReservationID: 55, ServiceID: 1, Price: 1500, Currency: "RUB", DurationMinutes: 60},
			}, nil)

		resp, err := env.uc.Execute(context.Background(), &Request{
			ExternalUserID: 42,
			CompanyID:      10,
			StartsAt:       testStart,
			Items:          []RequestedItem{{ServiceID: 1}},
		})

		require.NoError(t, err)
		assert.True(t, resp.Deduplicated)
		env.reservations.AssertExpectations(t)
	})

	t.Run("start outside tolerance creates new reservation", func(t *testing.T) {
		env := newTestEnv()
		env.uc.WithDedupWindow(300)
		laterStart := testStart.Add(5 * time.Minute)

		env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
		// Поиск идет вокруг нового старта, существующее бронирование
		// на testStart в границы [laterStart-60s, laterStart+60s] не попадает
		env.reservations.On("FindDuplicate", mock.Anything,
			int64(7), int64(10),
			laterStart.Add(-time.Minute), laterStart.Add(time.Minute),
			now.Add(-300*time.Second), int64(1)).
			Return(nil, reservationstorage.ErrReservationNotFound).Once()
		env.company.On("GetCompany", mock.Anything, int64(10)).Return(testCompany(), nil)
		env.company.On("GetService", mock.Anything, int64(10), int64(1)).Return(testService(1, 60), nil)
		env.company.On("ListEmployees", mock.Anything, int64(10)).Return([]companyservice.Employee{
			{ID: 1, Active: true, ServiceIDs: []int64{1}},
		}, nil)
		env.reservations.On("CountOverlapping", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(0, nil)
		expectCreate(env, 200)
		env.notify.On("SendBookingConfirmation", mock.Anything, mock.Anything).Return(nil).Maybe()

		resp, err := env.uc.Execute(context.Background(), &Request{
			ExternalUserID: 42,
			CompanyID:      10,
			StartsAt:       laterStart,
			Items:          []RequestedItem{{ServiceID: 1}},
		})

		require.NoError(t, err)
		assert.False(t, resp.Deduplicated)
		assert.Equal(t, int64(200), resp.ReservationID)
		env.reservations.AssertExpectations(t)
	})
}

func TestExecute_ValidationFailures(t *testing.T) {
	env := newTestEnv()

	cases := []struct {
		name string
		req  *Request
	}{
		{"no items", &Request{ExternalUserID: 42, CompanyID: 10, StartsAt: testStart}},
		{"zero user", &Request{CompanyID: 10, StartsAt: testStart, Items: []RequestedItem{{ServiceID: 1}}}},
		{"zero company", &Request{ExternalUserID: 42, StartsAt: testStart, Items: []RequestedItem{{ServiceID: 1}}}},
		{"zero startsAt", &Request{ExternalUserID: 42, CompanyID: 10, Items: []RequestedItem{{ServiceID: 1}}}},
		{"bad service id", &Request{ExternalUserID: 42, CompanyID: 10, StartsAt: testStart, Items: []RequestedItem{{ServiceID: 0}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.uc.Execute(context.Background(), tc.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	env.clients.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
}

func TestExecute_ClosedDay(t *testing.T) {
	env := newTestEnv()

	env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	noDuplicate(env)
	env.company.On("GetCompany", mock.Anything, int64(10)).Return(testCompany(), nil)
	env.company.On("GetService", mock.Anything, int64(10), int64(1)).Return(testService(1, 60), nil)

	// Четверг: окон приёма нет
	thursday := testStart.Add(24 * time.Hour)

	_, err := env.uc.Execute(context.Background(), &Request{
		ExternalUserID: 42,
		CompanyID:      10,
		StartsAt:       thursday,
		Items:          []RequestedItem{{ServiceID: 1}},
	})

	assert.ErrorIs(t, err, ErrClosedDay)
	env.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExecute_OutsideHoursAbortsWholeRequest(t *testing.T) {
	env := newTestEnv()

	env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	noDuplicate(env)
	env.company.On("GetCompany", mock.Anything, int64(10)).Return(testCompany(), nil)
	env.company.On("GetService", mock.Anything, int64(10), int64(1)).Return(testService(1, 300), nil)
	env.company.On("GetService", mock.Anything, int64(10), int64(2)).Return(testService(2, 300), nil)

	// Первая позиция помещается (10:00-15:00 местного), вторая (15:00-20:00) выходит
	// за закрытие - запрос отклоняется целиком, ни одной записи
	_, err := env.uc.Execute(context.Background(), &Request{
		ExternalUserID: 42,
		CompanyID:      10,
		StartsAt:       testStart,
		Items:          []RequestedItem{{ServiceID: 1}, {ServiceID: 2}},
	})

	assert.ErrorIs(t, err, ErrOutsideHours)
	env.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	env.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestExecute_PreferredEmployeeBusyFallsBack(t *testing.T) {
	env := newTestEnv()

	preferred := ptr.Ptr(int64(1))

	env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	noDuplicate(env)
	env.company.On("GetCompany", mock.Anything, int64(10)).Return(testCompany(), nil)
	env.company.On("GetService", mock.Anything, int64(10), int64(1)).Return(testService(1, 60), nil)
	env.company.On("ListEmployees", mock.Anything, int64(10)).Return([]companyservice.Employee{
		{ID: 1, Active: true, ServiceIDs: []int64{1}},
		{ID: 2, Active: true, ServiceIDs: []int64{1}},
	}, nil)

	// Запрошенный сотрудник занят, второй свободен
	env.reservations.On("CountOverlapping", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(1, nil)
	env.reservations.On("CountOverlapping", mock.Anything, int64(2), mock.Anything, mock.Anything).Return(0, nil)
	expectCreate(env, 100)
	env.notify.On("SendBookingConfirmation", mock.Anything, mock.Anything).Return(nil).Maybe()

	resp, err := env.uc.Execute(context.Background(), &Request{
		ExternalUserID: 42,
		CompanyID:      10,
		StartsAt:       testStart,
		EmployeeID:     preferred,
		Items:          []RequestedItem{{ServiceID: 1}},
	})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.NotNil(t, resp.Items[0].EmployeeID)
	assert.Equal(t, int64(2), *resp.Items[0].EmployeeID)
	assert.True(t, resp.FullyStaffed)
}

func TestExecute_NoFreeEmployeeCreatesUnstaffed(t *testing.T) {
	env := newTestEnv()

	env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	noDuplicate(env)
	env.company.On("GetCompany", mock.Anything, int64(10)).Return(testCompany(), nil)
	env.company.On("GetService", mock.Anything, int64(10), int64(1)).Return(testService(1, 60), nil)
	env.company.On("ListEmployees", mock.Anything, int64(10)).Return([]companyservice.Employee{
		{ID: 1, Active: true, ServiceIDs: []int64{1}},
		{ID: 2, Active: false, ServiceIDs: []int64{1}},
		{ID: 3, Active: true, ServiceIDs: []int64{2}},
	}, nil)

	// Единственный подходящий сотрудник занят
	env.reservations.On("CountOverlapping", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(1, nil)
	expectCreate(env, 100)
	env.notify.On("SendBookingConfirmation", mock.Anything, mock.Anything).Return(nil).Maybe()

	resp, err := env.uc.Execute(context.Background(), &Request{
		ExternalUserID: 42,
		CompanyID:      10,
		StartsAt:       testStart,
		Items:          []RequestedItem{{ServiceID: 1}},
	})

	// Нехватка персонала не блокирует бронирование
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Nil(t, resp.Items[0].EmployeeID)
	assert.False(t, resp.Items[0].Staffed)
	assert.False(t, resp.FullyStaffed)

	// Неактивные и неподходящие сотрудники не проверяются на занятость
	env.reservations.AssertNotCalled(t, "CountOverlapping", mock.Anything, int64(2), mock.Anything, mock.Anything)
	env.reservations.AssertNotCalled(t, "CountOverlapping", mock.Anything, int64(3), mock.Anything, mock.Anything)
}

func TestExecute_CompanyNotFound(t *testing.T) {
	env := newTestEnv()

	env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	noDuplicate(env)
	env.company.On("GetCompany", mock.Anything, int64(10)).Return(nil, companyservice.ErrCompanyNotFound)

	_, err := env.uc.Execute(context.Background(), &Request{
		ExternalUserID: 42,
		CompanyID:      10,
		StartsAt:       testStart,
		Items:          []RequestedItem{{ServiceID: 1}},
	})

	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestExecute_CreateFailureRollsBack(t *testing.T) {
	env := newTestEnv()

	env.clients.On("GetOrCreate", mock.Anything, int64(42)).Return(&domain.Client{ID: 7}, nil)
	noDuplicate(env)
	env.company.On("GetCompany", mock.Anything, int64(10)).Return(testCompany(), nil)
	env.company.On("GetService", mock.Anything, int64(10), int64(1)).Return(testService(1, 60), nil)
	env.company.On("ListEmployees", mock.Anything, int64(10)).Return([]companyservice.Employee{
		{ID: 1, Active: true, ServiceIDs: []int64{1}},
	}, nil)
	env.reservations.On("CountOverlapping", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(0, nil)
	env.reservations.On("Create", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := env.uc.Execute(context.Background(), &Request{
		ExternalUserID: 42,
		CompanyID:      10,
		StartsAt:       testStart,
		Items:          []RequestedItem{{ServiceID: 1}},
	})

	assert.ErrorIs(t, err, ErrInternal)
	env.history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	env.notify.AssertNotCalled(t, "SendBookingConfirmation", mock.Anything, mock.Anything)
}
