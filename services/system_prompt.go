package services

import (
	"github.com/tmc/langchaingo/prompts"
)

// chatPersona is the fixed persona of the general-chat strategy.
const chatPersona = `Sen yardımsever bir yapay zeka asistanısın.
Kullanıcıya nazik, kısa ve öz cevaplar ver.
Bilmediğin veya emin olmadığın konularda dürüst ol.`

var chatPrompt = prompts.NewPromptTemplate(chatPersona+`

Geçmiş Sohbet:
{{.history}}

Kullanıcı: {{.input}}
Asistan:`, []string{"history", "input"})

// searchPrompt grounds the answer in search results and tells the model to drop past events.
var searchPrompt = prompts.NewPromptTemplate(`Sen yardımsever bir asistansın.
Bugünün Tarihi: {{.current_date}}

Aşağıda Google arama sonuçları verilmiştir. Bu bilgileri kullanarak kullanıcının sorusunu cevapla.
DİKKAT: Arama sonuçlarındaki tarihleri kontrol et. Eğer etkinlik geçmişte kalmışsa o bilgiyi kullanma.
Sadece gelecekteki güncel etkinlikleri veya bilgileri ver.

Kullanıcı Sorusu: {{.question}}
Arama Sonuçları: {{.search_result}}

Cevap:`, []string{"current_date", "question", "search_result"})

// documentPrompt restricts the answer to the retrieved context.
var documentPrompt = prompts.NewPromptTemplate(`Sen uzman bir döküman asistanısın.
Görevin: Aşağıda verilen "Bağlam (Context)" içindeki bilgileri kullanarak kullanıcının sorusunu cevaplamaktır.

Kurallar:
1. Sadece ve sadece verilen bağlamdaki bilgilere göre cevap ver.
2. Döküman dışından bilgi uydurma.
3. Eğer sorunun cevabı dökümanda yoksa, net bir şekilde "Bu bilgi yüklenen dökümanda yer almıyor" de.
4. Cevabı verirken dökümandaki üsluba uygun, profesyonel ve açıklayıcı ol.

Bağlam (Context):
{{.context}}

Kullanıcı Sorusu: {{.question}}

Cevap:`, []string{"context", "question"})

func buildChatPrompt(history, input string) (string, error) {
	return chatPrompt.Format(map[string]any{"history": history, "input": input})
}

func buildSearchPrompt(currentDate, question, results string) (string, error) {
	return searchPrompt.Format(map[string]any{
		"current_date":  currentDate,
		"question":      question,
		"search_result": results,
	})
}

func buildDocumentPrompt(context, question string) (string, error) {
	return documentPrompt.Format(map[string]any{"context": context, "question": question})
}
