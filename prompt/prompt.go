// Package prompt builds the system prompt for chat completion from the
// admin policy flags and the retrieved knowledge. Block order matters: the
// model weighs earlier instructions more heavily, and the response rules at
// the end depend on whether any knowledge was found at all.
package prompt

import (
	"fmt"
	"strings"

	"github.com/xiv-ai/knowledge/retrieval"
)

// RefusalReply is the canned answer the model is instructed to give when
// the knowledge base is enabled, empty for this query, and external
// knowledge is blocked.
const RefusalReply = "Bu mövzu haqqında məlumatım yoxdur."

// Config is the admin policy for one assembled prompt. It is passed in
// explicitly per call; the assembler keeps no state.
type Config struct {
	UseKnowledgeBase      bool
	StrictMode            bool
	TopicRestrictions     string
	BlockInternet         bool
	BlockExternalLearning bool
	SuperStrictMode       bool
	AdminPrompt           string
	Language              string
}

func DefaultConfig() Config {
	return Config{
		UseKnowledgeBase:      true,
		StrictMode:            true,
		BlockInternet:         true,
		BlockExternalLearning: true,
		Language:              "Azərbaycan dili",
	}
}

// Assemble builds the system prompt. Blocks are emitted in a fixed order:
// identity, knowledge-source policy, internet policy, topic restrictions,
// super-strict directive, language, admin prompt, the three knowledge
// tiers, response rules, and finally the hard refusal when the knowledge
// base came up empty and external knowledge is off limits.
func Assemble(knowledge retrieval.Context, query string, config Config) string {
	var blocks []string

	if config.StrictMode {
		blocks = append(blocks, "Sən yalnız verilmiş biliklər bazasına əsaslanan köməkçi assistentsən.")
	} else {
		blocks = append(blocks, "Sən istifadəçilərə kömək edən assistentsən.")
	}

	switch {
	case config.UseKnowledgeBase && config.BlockExternalLearning:
		blocks = append(blocks, "Yalnız aşağıda verilən biliklər bazasından istifadə et. Öz ümumi biliklərindən istifadə etmə.")
	case config.UseKnowledgeBase:
		blocks = append(blocks, "İlk növbədə aşağıda verilən biliklər bazasından istifadə et. Orada cavab yoxdursa, öz biliklərinə əsaslana bilərsən.")
	default:
		blocks = append(blocks, "Suallara öz ümumi biliklərinə əsasən cavab ver.")
	}

	if config.BlockInternet {
		blocks = append(blocks, "İnternetə çıxışın yoxdur və real vaxt məlumatı əldə edə bilməzsən.")
	}

	if config.StrictMode && len(strings.TrimSpace(config.TopicRestrictions)) > 0 {
		blocks = append(blocks, fmt.Sprintf("MÖVZU MƏHDUDİYYƏTLƏRİ:\n%s", strings.TrimSpace(config.TopicRestrictions)))
	}

	if config.SuperStrictMode {
		blocks = append(blocks, "Biliklər bazasından kənar heç bir sualı cavablandırma. Mövzudan kənar suallara cavab verməkdən imtina et.")
	}

	language := config.Language
	if len(language) == 0 {
		language = "Azərbaycan dili"
	}
	blocks = append(blocks, fmt.Sprintf("Cavabları bu dildə ver: %s.", language))

	if len(strings.TrimSpace(config.AdminPrompt)) > 0 {
		blocks = append(blocks, fmt.Sprintf("ƏLAVƏ TƏLİMATLAR:\n%s", strings.TrimSpace(config.AdminPrompt)))
	}

	if config.UseKnowledgeBase {
		for _, tier := range []string{knowledge.URLContent, knowledge.QAContent, knowledge.GeneralContent} {
			if len(tier) > 0 {
				blocks = append(blocks, tier)
			}
		}
	}

	if config.BlockExternalLearning {
		blocks = append(blocks, "CAVAB QAYDALARI:\n- Yalnız yuxarıdakı məlumatlara əsaslan.\n- Məlumat tapılmadıqda bunu açıq şəkildə bildir.\n- Mənbə göstərilibsə, cavabda mənbəni qeyd et.")
	} else {
		blocks = append(blocks, "CAVAB QAYDALARI:\n- Əvvəlcə verilən məlumatlara əsaslan.\n- Mənbə göstərilibsə, cavabda mənbəni qeyd et.")
	}

	if config.UseKnowledgeBase && knowledge.Empty() && config.BlockExternalLearning {
		blocks = append(blocks, fmt.Sprintf("Biliklər bazasında bu sualla bağlı heç bir məlumat tapılmadı. Yalnız bu cavabı ver: \"%s\"", RefusalReply))
	}

	return strings.Join(blocks, "\n\n")
}
