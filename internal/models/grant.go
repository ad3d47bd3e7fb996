package models

import (
	"time"

	"github.com/google/uuid"
)

// Grant represents a funding opportunity (bando) as stored in the database.
// Optional fields are pointers: nil means "unknown/unparsed", which the
// reconciler treats as "no update requested", never as "clear the value".
type Grant struct {
	ID                      uuid.UUID  `json:"id"`
	RecordID                string     `json:"record_id"`
	NomeBando               string     `json:"nome_bando"`
	Promotore               string     `json:"promotore"`
	DescrizioneBreve        *string    `json:"descrizione_breve"`
	DescrizioneBando        *string    `json:"descrizione_bando"`
	AChiSiRivolge           *string    `json:"a_chi_si_rivolge"`
	Settore                 *string    `json:"settore"`
	CodiceAteco             *string    `json:"codice_ateco"`
	SpeseAmmissibili        *string    `json:"spese_ammissibili"`
	RichiestaMassima        *float64   `json:"richiesta_massima"`
	RichiestaMinima         *float64   `json:"richiesta_minima"`
	Dotazione               *float64   `json:"dotazione"`
	PercentualeFondoPerduto *float64   `json:"percentuale_fondo_perduto"`
	DataApertura            *time.Time `json:"data_apertura"`
	Scadenza                *time.Time `json:"scadenza"`
	ScadenzaInterna         *time.Time `json:"scadenza_interna"`
	LinkBando               string     `json:"link_bando"`
	LinkSitoBando           string     `json:"link_sito_bando"`
	Tipo                    *string    `json:"tipo"`
	Emanazione              *string    `json:"emanazione"`
	Stato                   string     `json:"stato"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// Attachment is a stored grant document. IsInformative selects the table and
// bucket it lives in (allegati_informativi vs allegati_compilativi).
type Attachment struct {
	ID            uuid.UUID `json:"id"`
	BandoID       uuid.UUID `json:"bando_id"`
	Numero        int       `json:"numero"`
	Nome          string    `json:"nome"`
	LinkOriginale string    `json:"link_originale"`
	FilePath      string    `json:"file_path"`
	FileName      string    `json:"file_name"`
	MimeType      string    `json:"mime_type"`
	IsInformative bool      `json:"is_informative"`
	CreatedAt     time.Time `json:"created_at"`
}

// StatusLog is one row of the bandi_status_log ledger. OldStatus is nil for
// the creation transition.
type StatusLog struct {
	ID        uuid.UUID `json:"id"`
	BandoID   uuid.UUID `json:"bando_id"`
	OldStatus *string   `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedAt time.Time `json:"changed_at"`
}
