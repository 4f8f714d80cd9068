package models

// StatusCode: каноническое значение статуса, с которым работают бизнес-правила.
// Имя из таблицы statuses, только для отображения и связи с id.
type StatusCode int

const (
	StatusUnknown StatusCode = iota
	StatusNew
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

var statusNames = map[StatusCode]string{
	StatusNew:        "Новая",
	StatusInProgress: "В работе",
	StatusCompleted:  "Выполнена",
	StatusCancelled:  "Отменена",
}

var AllStatuses = []StatusCode{StatusNew, StatusInProgress, StatusCompleted, StatusCancelled}

func (s StatusCode) Name() string {
	return statusNames[s]
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal: из этих статусов переходов нет.
func (s StatusCode) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Open: заявка ещё в работе (Новая / В работе).
func (s StatusCode) Open() bool {
	return s == StatusNew || s == StatusInProgress
}

func ParseStatus(name string) StatusCode {
	for code, n := range statusNames {
		if n == name {
			return code
		}
	}
	return StatusUnknown
}

type Status struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:50;not null" json:"name"`
}

func (s Status) Code() StatusCode {
	return ParseStatus(s.Name)
}
