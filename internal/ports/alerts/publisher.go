package alerts

import "context"

// Emergency es el payload estructurado que viaja al canal de alertas.
type Emergency struct {
	ReportID        string `json:"report_id"`
	Species         string `json:"species"`
	Count           int    `json:"count"`
	Address         string `json:"address"`
	HealthCondition string `json:"health_condition"`
	ReporterName    string `json:"reporter_name"`
	ReporterContact string `json:"reporter_contact,omitempty"`
}

// Publisher entrega una emergencia al canal out-of-band.
// Fire-and-forget desde el punto de vista del motor: el caller loguea
// el resultado pero no reintenta (los reintentos viven en el consumer).
type Publisher interface {
	PublishEmergency(ctx context.Context, e Emergency) error
}
