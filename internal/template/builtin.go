package template

import "github.com/viajora/leadnotify/internal/domain"

const (
	LeadAdminTemplateID        = "lead_admin_notification"
	LeadCustomerConfirmationID = "lead_customer_confirmation"

	defaultAdminPanelURL   = "https://www.viajora.com/admin/leads"
	defaultCompanyName     = "Viajora"
	defaultSupportPhone    = "+1 (305) 555-0142"
	defaultSupportWhatsApp = "+13055550142"
	defaultWebsiteURL      = "https://www.viajora.com"
)

// RegisterBuiltinTemplates installs the lead notification templates used by
// the capture flow. Registration failures here mean a programming error in
// the template definitions.
func RegisterBuiltinTemplates(registry *Registry) error {
	templates := []domain.Template{
		{
			ID:             LeadAdminTemplateID,
			Name:           "Lead Admin Notification",
			Type:           domain.TypeLeadAdmin,
			Subject:        "Novo Lead Recebido - {{nome}}",
			HTMLTemplate:   leadAdminHTML,
			TextTemplate:   leadAdminText,
			RequiredFields: []string{"nome", "email", "whatsapp", "origem", "destino", "selectedServices"},
			DefaultData: map[string]any{
				"adminUrl":    defaultAdminPanelURL,
				"companyName": defaultCompanyName,
			},
			Priority: domain.PriorityHigh,
			Tags:     []string{"lead", "admin", "notification"},
		},
		{
			ID:             LeadCustomerConfirmationID,
			Name:           "Lead Customer Confirmation",
			Type:           domain.TypeLeadCustomer,
			Subject:        "Bem-vindo à {{companyName}}, {{nome}}! Suas ofertas de viagem chegaram",
			HTMLTemplate:   customerConfirmationHTML,
			TextTemplate:   customerConfirmationText,
			RequiredFields: []string{"nome", "email"},
			DefaultData: map[string]any{
				"companyName":     defaultCompanyName,
				"supportPhone":    defaultSupportPhone,
				"supportWhatsApp": defaultSupportWhatsApp,
				"website":         defaultWebsiteURL,
			},
			Priority: domain.PriorityNormal,
			Tags:     []string{"lead", "customer", "confirmation"},
		},
	}

	for _, t := range templates {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

const leadAdminHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Novo Lead - {{nome}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333; background: #f5f5f5; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #667eea; color: white; padding: 24px; text-align: center;">
      <h1>Novo Lead Recebido</h1>
      <p>Um novo cliente potencial se interessou pelos nossos serviços!</p>
    </div>
    <div style="padding: 24px;">
      <h3>Informações do Cliente</h3>
      <p><strong>Nome:</strong> {{nome}}</p>
      <p><strong>Email:</strong> {{email}}</p>
      <p><strong>WhatsApp:</strong> {{whatsapp}}</p>
      {{#telefone}}<p><strong>Telefone:</strong> {{telefone}}</p>{{/telefone}}

      <h3>Detalhes da Viagem</h3>
      <p><strong>Origem:</strong> {{origem}}</p>
      <p><strong>Destino:</strong> {{destino}}</p>
      {{#dataPartida}}<p><strong>Data de Partida:</strong> {{dataPartida}}</p>{{/dataPartida}}
      {{#dataRetorno}}<p><strong>Data de Retorno:</strong> {{dataRetorno}}</p>{{/dataRetorno}}
      {{#numeroPassageiros}}<p><strong>Passageiros:</strong> {{numeroPassageiros}}</p>{{/numeroPassageiros}}
      {{#orcamentoTotal}}<p><strong>Orçamento:</strong> {{orcamentoTotal}}</p>{{/orcamentoTotal}}

      <h3>Serviços Solicitados</h3>
      <ul>
        {{#selectedServices}}<li>{{.}}</li>{{/selectedServices}}
      </ul>

      {{#observacoes}}
      <h3>Observações</h3>
      <p>{{observacoes}}</p>
      {{/observacoes}}

      <h3>Informações Técnicas</h3>
      <p><strong>ID do Lead:</strong> {{id}}</p>
      <p><strong>Fonte:</strong> {{source}}</p>
      <p><strong>Data/Hora:</strong> {{createdAt}}</p>

      <p style="text-align: center;">
        <a href="{{adminUrl}}" style="background: #667eea; color: white; padding: 14px 28px; text-decoration: none; border-radius: 8px;">Ver no Painel Admin</a>
        <a href="https://wa.me/{{whatsapp}}" style="background: #25d366; color: white; padding: 14px 28px; text-decoration: none; border-radius: 8px;">Contatar via WhatsApp</a>
      </p>
    </div>
    <div style="text-align: center; padding: 20px; color: #666; font-size: 13px;">
      <p>Esta é uma notificação automática do sistema {{companyName}}</p>
    </div>
  </div>
</body>
</html>`

const leadAdminText = `NOVO LEAD RECEBIDO - {{companyName}}

Cliente: {{nome}}
Email: {{email}}
WhatsApp: {{whatsapp}}
{{#telefone}}Telefone: {{telefone}}{{/telefone}}

Viagem:
- Origem: {{origem}}
- Destino: {{destino}}
{{#dataPartida}}- Data Partida: {{dataPartida}}{{/dataPartida}}
{{#dataRetorno}}- Data Retorno: {{dataRetorno}}{{/dataRetorno}}
{{#numeroPassageiros}}- Passageiros: {{numeroPassageiros}}{{/numeroPassageiros}}
{{#orcamentoTotal}}- Orçamento: {{orcamentoTotal}}{{/orcamentoTotal}}

Serviços: {{#selectedServices}}{{.}}, {{/selectedServices}}

{{#observacoes}}Observações: {{observacoes}}{{/observacoes}}

Detalhes:
- ID: {{id}}
- Fonte: {{source}}
- Data: {{createdAt}}

Painel Admin: {{adminUrl}}
WhatsApp: https://wa.me/{{whatsapp}}`

const customerConfirmationHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Bem-vindo à {{companyName}}!</title></head>
<body style="font-family: Arial, sans-serif; color: #333; background: #f5f5f5; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #1e40af; color: white; padding: 30px; text-align: center;">
      <div style="font-size: 32px; font-weight: bold;">{{companyName}}</div>
      <div style="font-size: 18px;">Conectando brasileiros ao mundo desde 2014</div>
    </div>
    <div style="padding: 30px; background: #f8fafc;">
      <h2 style="color: #1e40af;">Olá, {{nome}}!</h2>
      <p><strong>Obrigado por escolher a {{companyName}}!</strong></p>
      <p>Somos especialistas em viagens para brasileiros nos EUA. Sua solicitação
      foi recebida e nossa equipe já está preparando as melhores ofertas para você!</p>

      <h3 style="color: #059669;">O que oferecemos exclusivamente:</h3>
      <ul>
        <li>Passagens aéreas com tarifas exclusivas</li>
        <li>Hotéis premium com tarifas especiais</li>
        <li>Aluguel de carros sem taxas ocultas</li>
        <li>Seguro viagem completo incluso</li>
        <li>Suporte 24/7 em português nos EUA</li>
      </ul>

      <h3 style="color: #1e40af;">Nossa equipe entrará em contato em até 30 minutos!</h3>
      <p style="text-align: center;">
        <a href="https://wa.me/{{supportWhatsApp}}" style="background: #25d366; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px;">WhatsApp Direto EUA</a>
        <a href="tel:{{supportPhone}}" style="background: #1e40af; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px;">Ligar Agora: {{supportPhone}}</a>
      </p>
      <p style="text-align: center;"><a href="{{website}}">Ver mais ofertas no site</a></p>
    </div>
    <div style="text-align: center; padding: 20px; color: #666; font-size: 14px;">
      <p><strong>{{companyName}} Travel Inc.</strong></p>
      <p>Miami, FL - Estados Unidos</p>
      <p style="font-size: 12px;">Você está recebendo este email porque solicitou informações em nosso site.</p>
    </div>
  </div>
</body>
</html>`

const customerConfirmationText = `BEM-VINDO À {{companyName}}, {{nome}}!

Obrigado por escolher a {{companyName}}! Somos especialistas em viagens para
brasileiros nos EUA. Sua solicitação foi recebida e nossa equipe já está
preparando as melhores ofertas para você.

O que oferecemos exclusivamente:
- Passagens aéreas com tarifas exclusivas
- Hotéis premium com tarifas especiais
- Aluguel de carros sem taxas ocultas
- Seguro viagem completo incluso
- Suporte 24/7 em português nos EUA

Nossa equipe entrará em contato em até 30 minutos!

WhatsApp: https://wa.me/{{supportWhatsApp}}
Telefone: {{supportPhone}}
Site: {{website}}

{{companyName}} Travel Inc.
Miami, FL - Estados Unidos`
