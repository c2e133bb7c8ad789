// response — единый версионированный конверт ответов API.
//
// Верхний уровень ответа: api_version и ровно одно из полей data/error.
// data несёт дискриминатор kind и поля полезной нагрузки на одном уровне,
// error — стабильный машинный reason и безопасное человекочитаемое message;
// числовой статус несёт строка статуса HTTP, в теле он не дублируется.
package response

import (
	"encoding/json"
	"net/http"
)

// APIVersion — версия API, фиксированная для деплоймента.
const APIVersion = "1.0"

// Envelope — корневой объект любого ответа.
type Envelope struct {
	APIVersion string     `json:"api_version"`
	Data       *Data      `json:"data,omitempty"`
	Error      *ErrorBody `json:"error,omitempty"`
}

// ErrorBody — тело ошибки для клиента.
// RequestID прокидывается из X-Request-Id, если есть (для трассировки).
type ErrorBody struct {
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Data — обёртка успешной нагрузки: kind плюс поля Content,
// сериализуемые на одном уровне с ним.
type Data struct {
	Kind    string
	Content any
}

// MarshalJSON раскладывает Content рядом с kind.
// Поле kind зарезервировано: одноимённое поле нагрузки игнорируется.
func (d Data) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(d.Content)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	}

	if d.Kind != "" {
		kind, err := json.Marshal(d.Kind)
		if err != nil {
			return nil, err
		}
		fields["kind"] = kind
	}

	return json.Marshal(fields)
}

// Success строит конверт успешного ответа.
func Success(kind string, payload any) Envelope {
	return Envelope{
		APIVersion: APIVersion,
		Data:       &Data{Kind: kind, Content: payload},
	}
}

// Failure строит конверт ошибки по результату маппинга таксономии.
func Failure(body ErrorBody) Envelope {
	return Envelope{
		APIVersion: APIVersion,
		Error:      &body,
	}
}

// WriteJSON пишет конверт с нужным статусом и Content-Type.
func WriteJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// WriteSuccess — хелпер для хендлеров: успешный конверт со статусом
// 200/201 по семантике операции.
func WriteSuccess(w http.ResponseWriter, status int, kind string, payload any) {
	WriteJSON(w, status, Success(kind, payload))
}
