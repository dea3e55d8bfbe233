package stamping

import "time"

// Request carries everything printed into one signature block. Original
// takes precedence over OriginalRef when both are set.
type Request struct {
	OriginalRef       string
	Original          []byte
	DisplayID         string
	VerificationToken string
	SignerName        string
	SignerContact     string
	SignedAt          time.Time
	OrganizationName  string
}

// SignedResult points at the persisted signed copy.
type SignedResult struct {
	StorageReference string `json:"storage_reference"`
	SHA256Hash       string `json:"sha256_hash"`
}

// Decision says where the signature block goes.
type Decision struct {
	TargetsExistingPage bool
	StartY              float64
}

// Layout holds the block geometry in points.
type Layout struct {
	BlockHeight   float64
	BottomMargin  float64
	Gap           float64
	TopMargin     float64
	MarginX       float64
	NewPageWidth  float64
	NewPageHeight float64
}

func DefaultLayout() Layout {
	return Layout{
		BlockHeight:   250,
		BottomMargin:  40,
		Gap:           15,
		TopMargin:     50,
		MarginX:       50,
		NewPageWidth:  595,
		NewPageHeight: 842,
	}
}

// Issuer is the legal entity operating the signing platform.
type Issuer struct {
	Name     string
	BIN      string
	Phone    string
	Platform string
}

// Labels is the fixed copy of the signature block.
type Labels struct {
	Intro          [3]string
	Sender         string
	Recipient      string
	Status         string
	StatusSigned   string
	IssuerIDPrefix string
	SignedAtPrefix string
	PlatformPrefix string
	Disclosure     string
}

func DefaultLabels() Labels {
	return Labels{
		Intro: [3]string{
			"Этот документ был подписан через систему Contract 961.",
			"Для проверки подлинности электронного документа",
			"сканируйте QR-код или перейдите на сайт 961.kz",
		},
		Sender:         "Отправитель:",
		Recipient:      "Получатель:",
		Status:         "Статус:",
		StatusSigned:   "Подписан",
		IssuerIDPrefix: "БИН: ",
		SignedAtPrefix: "Дата подписи: ",
		PlatformPrefix: "Платформа: ",
		Disclosure:     "Подписано электронно с SMS-подтверждением",
	}
}
