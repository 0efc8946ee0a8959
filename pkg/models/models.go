package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =============================== Enums ================================== */

// Role defines what an authenticated attorney account may do.
type Role string

const (
	RoleAttorney Role = "attorney"
	RoleAdmin    Role = "admin"
)

// ClientType distinguishes people from organisations.
type ClientType string

const (
	ClientIndividual ClientType = "Individual"
	ClientCorporate  ClientType = "Corporate"
)

// ClientStatus is the engagement state of a client.
type ClientStatus string

const (
	ClientActive   ClientStatus = "Active"
	ClientInactive ClientStatus = "Inactive"
)

// CaseType is the practice area of a case.
type CaseType string

const (
	CaseCriminal     CaseType = "Criminal"
	CaseCivil        CaseType = "Civil"
	CaseFamily       CaseType = "Family"
	CaseCorporate    CaseType = "Corporate"
	CaseImmigration  CaseType = "Immigration"
	CaseIntellectual CaseType = "Intellectual Property"
)

// CaseStatus defines lifecycle states for a case.
type CaseStatus string

const (
	CaseActive  CaseStatus = "Active"
	CasePending CaseStatus = "Pending"
	CaseClosed  CaseStatus = "Closed"
	CaseOnHold  CaseStatus = "On Hold"
)

// Priority is shared by cases and tasks.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// DocumentType classifies legal documents.
type DocumentType string

const (
	DocContract  DocumentType = "Contract"
	DocAffidavit DocumentType = "Affidavit"
	DocMotion    DocumentType = "Motion"
	DocBrief     DocumentType = "Brief"
	DocEvidence  DocumentType = "Evidence"
	DocSubpoena  DocumentType = "Subpoena"
	DocOrder     DocumentType = "Order"
)

// DocumentStatus is the review pipeline of a document.
type DocumentStatus string

const (
	DocDraft         DocumentStatus = "Draft"
	DocPendingReview DocumentStatus = "Pending Review"
	DocReviewed      DocumentStatus = "Reviewed"
	DocApproved      DocumentStatus = "Approved"
	DocFiled         DocumentStatus = "Filed"
)

// TaskStatus defines lifecycle states for a task.
type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
	TaskOverdue    TaskStatus = "Overdue"
)

// InvoiceStatus defines lifecycle states for an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "Draft"
	InvoiceSent      InvoiceStatus = "Sent"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceOverdue   InvoiceStatus = "Overdue"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

// NotificationType is the display severity of a notification.
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyDanger  NotificationType = "danger"
)

// Action is the kind of mutation a notification describes.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Entity names used on notifications. They are labels, not foreign keys.
const (
	EntityClient   = "Client"
	EntityCase     = "Case"
	EntityDocument = "Document"
	EntityTask     = "Task"
	EntityInvoice  = "Invoice"
)

// Enum value sets keyed by validation tag; pkg/validation registers one rule per key.
var EnumValues = map[string][]string{
	"role":            {string(RoleAttorney), string(RoleAdmin)},
	"client_type":     {string(ClientIndividual), string(ClientCorporate)},
	"client_status":   {string(ClientActive), string(ClientInactive)},
	"case_type":       {string(CaseCriminal), string(CaseCivil), string(CaseFamily), string(CaseCorporate), string(CaseImmigration), string(CaseIntellectual)},
	"case_status":     {string(CaseActive), string(CasePending), string(CaseClosed), string(CaseOnHold)},
	"priority":        {string(PriorityHigh), string(PriorityMedium), string(PriorityLow)},
	"document_type":   {string(DocContract), string(DocAffidavit), string(DocMotion), string(DocBrief), string(DocEvidence), string(DocSubpoena), string(DocOrder)},
	"document_status": {string(DocDraft), string(DocPendingReview), string(DocReviewed), string(DocApproved), string(DocFiled)},
	"task_status":     {string(TaskToDo), string(TaskInProgress), string(TaskCompleted), string(TaskOverdue)},
	"invoice_status":  {string(InvoiceDraft), string(InvoiceSent), string(InvoicePaid), string(InvoiceOverdue), string(InvoiceCancelled)},
}

/* =============================== Entities =============================== */

// User is an attorney account able to sign in.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Client is an individual or corporate client of the firm.
// ActiveCases is derived from cases and only written by internal/counters.
type Client struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string       `gorm:"not null" json:"name"`
	Email       string       `gorm:"uniqueIndex;not null" json:"email"`
	Phone       string       `json:"phone"`
	Company     string       `json:"company"`
	Type        ClientType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Address     string       `json:"address"`
	ActiveCases int          `gorm:"not null;default:0" json:"activeCases"`
	Status      ClientStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	JoinedDate  time.Time    `gorm:"not null;index" json:"joinedDate"`
	CreatedAt   time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Case is a legal matter handled by the firm.
type Case struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CaseNumber       string     `gorm:"uniqueIndex;not null" json:"caseNumber"`
	Title            string     `gorm:"not null" json:"title"`
	Type             CaseType   `gorm:"type:varchar(40);not null;index" json:"type"`
	Status           CaseStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Priority         Priority   `gorm:"type:varchar(20);not null;index" json:"priority"`
	ClientID         *uuid.UUID `gorm:"type:uuid;index" json:"clientId"`
	AssignedAttorney string     `json:"assignedAttorney"`
	CourtDate        *time.Time `gorm:"index" json:"courtDate"`
	FilingDate       *time.Time `json:"filingDate"`
	Description      string     `json:"description"`
	CreatedAt        time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	// Lookup only (weak reference)
	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// Document is a legal document, optionally attached to a case.
type Document struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string         `gorm:"not null" json:"title"`
	CaseID     *uuid.UUID     `gorm:"type:uuid;index" json:"caseId"`
	Type       DocumentType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Status     DocumentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	UploadedBy string         `json:"uploadedBy"`
	FileURL    string         `json:"fileUrl"`
	Notes      string         `json:"notes"`
	Deadline   *time.Time     `gorm:"index" json:"deadline"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`

	Case *Case `gorm:"foreignKey:CaseID" json:"case,omitempty"`
}

// Task is an action item, optionally attached to a case.
type Task struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title                string     `gorm:"not null" json:"title"`
	Description          string     `json:"description"`
	CaseID               *uuid.UUID `gorm:"type:uuid;index" json:"caseId"`
	AssignedTo           string     `json:"assignedTo"`
	Priority             Priority   `gorm:"type:varchar(20);not null;index" json:"priority"`
	Status               TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	DueDate              *time.Time `gorm:"index" json:"dueDate"`
	CompletionPercentage int        `gorm:"not null;default:0" json:"completionPercentage"`
	CreatedAt            time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`

	Case *Case `gorm:"foreignKey:CaseID" json:"case,omitempty"`
}

// Invoice is a billing record for hours worked on a case.
// Amount is always hours × hourlyRate rounded to cents (see internal/billing).
type Invoice struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNumber string        `gorm:"uniqueIndex;not null" json:"invoiceNumber"`
	CaseID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"caseId"`
	ClientID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"clientId"`
	Attorney      string        `gorm:"not null" json:"attorney"`
	Description   string        `json:"description"`
	Hours         float64       `gorm:"not null" json:"hours"`
	HourlyRate    float64       `gorm:"not null" json:"hourlyRate"`
	Amount        float64       `gorm:"not null;default:0" json:"amount"`
	Status        InvoiceStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	DueDate       time.Time     `gorm:"not null;index" json:"dueDate"`
	PaidDate      *time.Time    `json:"paidDate"`
	Notes         string        `json:"notes"`
	CreatedAt     time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	Case   *Case   `gorm:"foreignKey:CaseID" json:"case,omitempty"`
	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// Notification is an activity event shown to every attorney.
// ReadBy and Read are filled per viewer from notification_reads.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Type      NotificationType `gorm:"type:varchar(10);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"not null" json:"message"`
	CreatedBy string           `json:"createdBy"`
	Entity    string           `gorm:"type:varchar(20)" json:"entity"`
	Action    Action           `gorm:"type:varchar(10)" json:"action"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`

	Reads  []NotificationRead `gorm:"foreignKey:NotificationID" json:"-"`
	ReadBy []string           `gorm:"-" json:"readBy"`
	Read   bool               `gorm:"-" json:"read"`
}

// NotificationRead records that a viewer (lowercased email) has read a notification.
type NotificationRead struct {
	NotificationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Viewer         string    `gorm:"type:varchar(254);primaryKey"`
	ReadAt         time.Time `gorm:"not null"`
}

/* ================================ Hooks ================================= */

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error         { newID(&u.ID); return nil }
func (c *Client) BeforeCreate(*gorm.DB) error       { newID(&c.ID); return nil }
func (c *Case) BeforeCreate(*gorm.DB) error         { newID(&c.ID); return nil }
func (d *Document) BeforeCreate(*gorm.DB) error     { newID(&d.ID); return nil }
func (t *Task) BeforeCreate(*gorm.DB) error         { newID(&t.ID); return nil }
func (i *Invoice) BeforeCreate(*gorm.DB) error      { newID(&i.ID); return nil }
func (n *Notification) BeforeCreate(*gorm.DB) error { newID(&n.ID); return nil }

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&User{}, &Client{}, &Case{}, &Document{}, &Task{}, &Invoice{},
		&Notification{}, &NotificationRead{},
	}
}
