package payment

import "github.com/m04kA/SMC-FacilityBookingService/pkg/dbmetrics"

type DBExecutor = dbmetrics.DBExecutor
