// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import (
	"context"
	"time"

	"github.com/jeranaias/innerbook/internal/cloud"
	"github.com/jeranaias/innerbook/internal/model"
)

// =============================================================================
// SCRIPTED RESPONSES
// =============================================================================

// discoverSelfScript is the question flow for the self-discovery mode.
var discoverSelfScript = []string{
	`你好！很高兴能和你一起开启这段探索之旅。

在开始之前，我想先了解一下你——我们的第一个问题会带你回到16岁之前，那个还没被社会完全"规训"的你。

**请回忆一下：在你16岁之前，有哪些事情是没人逼你，你也会废寝忘食去做的？**

或者换一个角度——**有哪些从小到大被批评的"顽固缺点"**，比如爱插嘴、太敏感、爱发呆、太固执等？

这些"缺点"往往藏着天赋的种子，请诚实地告诉我。`,

	`谢谢你的分享，这很有价值。我能感受到你在描述这些时，眼睛里是有光的。

让我追问一下：**当你沉浸在那件事情中时，具体是什么感觉？是时间变快了？是忘记吃饭？还是一种"这就是我该做的事"的笃定？**

请具体描述一下当时的状态。`,

	`非常好的觉察！

现在让我们来到成年后的你。在工作或生活中，**有没有哪件事让你觉得"这还需要学吗？这不是显而易见的吗？"——但周围人却觉得很难？**

这个问题在寻找你的"无意识胜任区"——那些你觉得理所当然、但其实是你独特天赋的领域。`,

	`很有意思的例子！这说明你在某些方面有着别人不具备的敏锐度。

下一个问题：**有哪件事，做完后虽然身体累，但精神却极度亢奋、充满能量？**

这个问题在做"能量审计"——真正的天赋是让你回血的事，而不是你单纯擅长但做完很累的事。`,

	`我注意到你反复提到了一些关键词，这很重要。

最后一个问题可能有点冒犯，但它非常关键：**你曾经对谁（或哪种生活状态）产生过强烈的嫉妒或"酸溜溜"的感觉？**

嫉妒通常是"被压抑的天赋"在发出信号。请诚实面对，这对找到你的真正天赋很有帮助。`,

	`感谢你如此坦诚的分享。根据我们的对话，我已经捕捉到了一些重要的信号。

让我再深入一下：**在你描述的这些经历中，你觉得有什么共同的底层模式吗？**比如都涉及到"帮助他人"、"解决复杂问题"、"创造新事物"等？`,
}

// understandOthersScript is the question flow for the
// understand-others mode.
var understandOthersScript = []string{
	`你好！这一次我们一起来读懂你身边的那个人。

先从最直观的印象开始：**当你想到 TA 时，脑海里浮现的第一个画面是什么？TA 正在做什么？**

第一印象往往藏着 TA 最外显的特质。`,

	`很生动的描述。

接下来想一想：**TA 在什么事情上会不自觉地投入大量时间，甚至忘记周围的一切？**

一个人的注意力流向，是读懂 TA 的第一把钥匙。`,

	`有意思。换一个角度：

**TA 被人批评最多的"毛病"是什么？太较真？太慢热？想得太多？**

毛病常常是天赋过量的表现，我们来看看它的另一面。`,

	`谢谢，这些细节很关键。

最后一个问题：**当 TA 帮助别人或完成某件事后，什么样的反馈会让 TA 眼睛发亮？**

这指向 TA 真正在意的价值感来源。`,
}

// finalReport is the marker-prefixed report emitted once a script is
// exhausted. The marker is immediately followed by the title heading,
// matching the tightest form the detector must handle.
const finalReport = `[Report]# 个人天赋使用说明书

---

## 写在前面

亲爱的朋友，感谢你愿意花时间与我进行这场深度对话。在过去的几轮交流中，我见证了你对自我的真诚探索，也捕捉到了许多珍贵的信号。现在，请允许我为你呈现这份专属的《天赋说明书》。

## 一、你的核心天赋地图

### 主天赋：[洞察力 × 同理心]

通过我们的对话，我发现你身上有一种非常稀有的组合能力——**深度洞察**与**情感共鸣**的结合。这不是学来的技能，而是你的出厂设置。

### 辅助天赋

1. **模式识别力**：你能在看似混乱的信息中找到规律
2. **语言转化力**：你善于把复杂的东西用简单的话说清楚
3. **持久专注力**：一旦进入状态，你可以长时间保持高质量输出

## 二、天赋的使用场景

你的天赋最适合以下场景...

（这是一份模拟示例报告，配置真实的 API Key 后将获得完整的 AI 分析。）`

// =============================================================================
// MOCK CLIENT
// =============================================================================

const (
	// defaultInitialDelay simulates the provider's time to first token.
	defaultInitialDelay = 500 * time.Millisecond

	// defaultStepInterval is the self-paced reveal tick.
	defaultStepInterval = 15 * time.Millisecond

	// revealStep is the number of runes revealed per tick.
	revealStep = 4
)

// Client is a scripted stand-in for the cloud chat client. It satisfies
// the same StreamMessage contract: onUpdate always receives cumulative
// content.
type Client struct {
	script       []string
	report       string
	initialDelay time.Duration
	stepInterval time.Duration
}

// NewClient creates a mock client for the given conversation mode.
func NewClient(mode model.Mode) *Client {
	script := discoverSelfScript
	if mode == model.ModeUnderstandOthers {
		script = understandOthersScript
	}
	return &Client{
		script:       script,
		report:       finalReport,
		initialDelay: defaultInitialDelay,
		stepInterval: defaultStepInterval,
	}
}

// WithTiming overrides the reveal pacing. Tests use zero delays.
func (c *Client) WithTiming(initialDelay, stepInterval time.Duration) *Client {
	c.initialDelay = initialDelay
	c.stepInterval = stepInterval
	return c
}

// SelfPaced reports that replies arrive already animated, so the
// conversation layer should display updates directly instead of
// running its own reveal on top.
func (c *Client) SelfPaced() bool {
	return true
}

// StreamMessage picks the scripted reply for the current round and
// reveals it progressively through onUpdate. Rounds are counted by
// user messages in the history; once the script is exhausted the final
// marker-prefixed report is returned.
func (c *Client) StreamMessage(ctx context.Context, messages []cloud.ChatMessage, onUpdate func(cumulative string)) (string, error) {
	reply := c.pickReply(messages)

	if c.initialDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.initialDelay):
		}
	}

	if onUpdate == nil {
		return reply, nil
	}

	runes := []rune(reply)
	for i := revealStep; i < len(runes); i += revealStep {
		onUpdate(string(runes[:i]))
		if c.stepInterval > 0 {
			select {
			case <-ctx.Done():
				return string(runes[:i]), ctx.Err()
			case <-time.After(c.stepInterval):
			}
		}
	}
	onUpdate(reply)
	return reply, nil
}

// pickReply selects the scripted reply for the round implied by the
// conversation history.
func (c *Client) pickReply(messages []cloud.ChatMessage) string {
	round := 0
	for _, m := range messages {
		if m.Role == "user" {
			round++
		}
	}
	// The kick-off user message starts round 1, which maps to the first
	// scripted question.
	if round > 0 {
		round--
	}
	if round >= len(c.script) {
		return c.report
	}
	return c.script[round]
}
