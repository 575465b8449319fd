package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"kitrader/internal/models"
)

// NotificationRepository - работа с таблицей notifications
//
// Журнал событий движка: открытия, закрытия, отказы риск-валидатора,
// ошибки. Meta хранится как JSONB.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository создает новый экземпляр репозитория
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create сохраняет уведомление
func (r *NotificationRepository) Create(notif *models.Notification) error {
	query := `
		INSERT INTO notifications (timestamp, type, severity, user_id, position_id, message, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	if notif.Timestamp.IsZero() {
		notif.Timestamp = time.Now()
	}

	meta, err := json.Marshal(notif.Meta)
	if err != nil {
		return err
	}

	return r.db.QueryRow(
		query,
		notif.Timestamp,
		notif.Type,
		notif.Severity,
		notif.UserID,
		notif.PositionID,
		notif.Message,
		meta,
	).Scan(&notif.ID)
}

// GetRecent возвращает последние limit уведомлений
func (r *NotificationRepository) GetRecent(limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, timestamp, type, severity, user_id, position_id, message, meta
		FROM notifications
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// GetRecentByUser возвращает последние уведомления пользователя
func (r *NotificationRepository) GetRecentByUser(userID int64, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, timestamp, type, severity, user_id, position_id, message, meta
		FROM notifications
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotifications(rows)
}

// DeleteOlderThan удаляет уведомления старше отметки (автоочистка)
func (r *NotificationRepository) DeleteOlderThan(timestamp time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE timestamp < $1`

	result, err := r.db.Exec(query, timestamp)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// scanNotifications читает строки результата в срез уведомлений
func scanNotifications(rows *sql.Rows) ([]*models.Notification, error) {
	var notifications []*models.Notification
	for rows.Next() {
		notif := &models.Notification{}
		var meta []byte
		err := rows.Scan(
			&notif.ID,
			&notif.Timestamp,
			&notif.Type,
			&notif.Severity,
			&notif.UserID,
			&notif.PositionID,
			&notif.Message,
			&meta,
		)
		if err != nil {
			return nil, err
		}

		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &notif.Meta); err != nil {
				return nil, err
			}
		}

		notifications = append(notifications, notif)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}
