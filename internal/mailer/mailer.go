package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

type Message struct {
	To      string `json:"receiverEmail"`
	Subject string `json:"subject"`
	HTML    string `json:"template"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New 未配置 SMTP 主机时退化为只打日志
func New(cfg config.SMTPConfig, log *zap.Logger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg, log)
}

type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
	log    *zap.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, log *zap.Logger) *SMTPMailer {
	if log == nil {
		log = logger.Named("mailer")
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 20 * time.Second
	d.SSL = cfg.Port == 465
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{dialer: d, from: from, log: log}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mm := mail.NewMessage()
	mm.SetHeader("From", m.from)
	mm.SetHeader("To", msg.To)
	mm.SetHeader("Subject", msg.Subject)
	mm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(mm); err != nil {
		m.log.Error("发送邮件失败", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	m.log.Info("邮件发送成功", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogMailer 开发环境使用
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = logger.Named("mailer")
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("mail (not sent)", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Int("bytes", len(msg.HTML)))
	return nil
}
